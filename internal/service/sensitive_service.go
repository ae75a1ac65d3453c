package service

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/importcjj/sensitive"
	"go.uber.org/zap"
)

// SensitiveService 敏感词过滤服务，基于字典树匹配
type SensitiveService struct {
	filter *sensitive.Filter
	count  int
	logger *zap.SugaredLogger
}

// NewSensitiveService 创建敏感词过滤服务，words 为初始词表
func NewSensitiveService(logger *zap.SugaredLogger, words ...string) *SensitiveService {
	s := &SensitiveService{
		filter: sensitive.New(),
		logger: logger,
	}
	s.AddWords(words...)
	return s
}

// AddWords 添加敏感词
func (s *SensitiveService) AddWords(words ...string) {
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		s.filter.AddWord(w)
		s.count++
	}
}

// LoadFile 从文件加载敏感词，每行一个，支持Base64编码的行
func (s *SensitiveService) LoadFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("打开敏感词文件失败: %w", err)
	}
	defer file.Close()

	before := s.count
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if decoded, err := base64.StdEncoding.DecodeString(line); err == nil {
			line = string(decoded)
		}
		s.AddWords(line)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	s.logger.Infof("已加载 %d 个敏感词", s.count-before)
	return nil
}

// ContainsSensitiveWord 检测文本是否包含敏感词
func (s *SensitiveService) ContainsSensitiveWord(text string) bool {
	if s.count == 0 {
		return false
	}
	ok, _ := s.filter.Validate(text)
	return !ok
}

// GetSensitiveWords 获取文本中包含的敏感词
func (s *SensitiveService) GetSensitiveWords(text string) []string {
	if s.count == 0 {
		return nil
	}
	return s.filter.FindAll(text)
}

// FilterSensitiveWords 将敏感词逐字替换为 *
func (s *SensitiveService) FilterSensitiveWords(text string) string {
	if s.count == 0 {
		return text
	}
	return s.filter.Replace(text, '*')
}
