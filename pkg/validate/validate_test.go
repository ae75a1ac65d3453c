package validate

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tagForm struct {
	Name  string `validate:"required,max=5"`
	Color string `validate:"omitempty,tagcolor"`
	Type  string `validate:"omitempty,oneof=a b"`
}

func newValidator(t *testing.T) *validator.Validate {
	v := validator.New()
	require.NoError(t, RegisterOn(v))
	return v
}

func TestTagColor(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Struct(tagForm{Name: "go", Color: "#1890ff"}))
	assert.Error(t, v.Struct(tagForm{Name: "go", Color: "#fff"}))
	assert.Error(t, v.Struct(tagForm{Name: "go", Color: "red"}))
}

func TestMessage(t *testing.T) {
	v := newValidator(t)

	assert.Equal(t, "名称不能为空", Message(v.Struct(tagForm{})))
	assert.Equal(t, "名称长度不能大于5", Message(v.Struct(tagForm{Name: "toolong"})))
	assert.Equal(t, "颜色必须是#rrggbb格式的颜色", Message(v.Struct(tagForm{Name: "go", Color: "x"})))
	assert.Equal(t, "类型必须是[a,b]中的一个", Message(v.Struct(tagForm{Name: "go", Type: "c"})))
	assert.Equal(t, "参数错误", Message(errors.New("unexpected EOF")))
}
