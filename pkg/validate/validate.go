// Package validate 注册自定义校验规则并把校验错误转换为可读信息
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var tagColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Register 在 gin 默认校验器上注册自定义规则
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin 校验器类型不受支持")
	}
	return RegisterOn(v)
}

// RegisterOn 在指定校验器上注册自定义规则
func RegisterOn(v *validator.Validate) error {
	return v.RegisterValidation("tagcolor", func(fl validator.FieldLevel) bool {
		return tagColorPattern.MatchString(fl.Field().String())
	})
}

var msgMap = map[string]string{
	"required": "不能为空",
	"min":      "长度不能小于%v",
	"max":      "长度不能大于%v",
	"email":    "必须是有效的邮箱地址",
	"url":      "必须是有效的网址",
	"oneof":    "必须是[%v]中的一个",
	"tagcolor": "必须是#rrggbb格式的颜色",
}

var fieldMap = map[string]string{
	"Title":      "标题",
	"Content":    "内容",
	"Email":      "邮箱",
	"Password":   "密码",
	"Username":   "用户名",
	"Name":       "名称",
	"Color":      "颜色",
	"Type":       "类型",
	"Input":      "输入",
	"Status":     "状态",
	"URL":        "链接",
	"AnimeClass": "番剧类型",
}

// Message 把绑定错误转换为中文提示，非校验错误返回通用信息
func Message(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "参数错误"
	}

	first := errs[0]
	field := fieldMap[first.Field()]
	if field == "" {
		field = first.Field()
	}
	tmpl, ok := msgMap[first.Tag()]
	if !ok {
		return field + "验证失败"
	}
	if strings.Contains(tmpl, "%v") {
		param := strings.ReplaceAll(first.Param(), " ", ",")
		return field + fmt.Sprintf(tmpl, param)
	}
	return field + tmpl
}
