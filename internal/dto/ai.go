package dto

// AIGenerateRequest 文本生成请求
type AIGenerateRequest struct {
	Type     string `json:"type" binding:"required,oneof=content summary title polish generate complete"`
	Input    string `json:"input" binding:"required,max=10000"`
	Context  string `json:"context" binding:"max=10000"`
	Language string `json:"language" binding:"omitempty,max=20"`
}

// AIGenerateResponse 文本生成结果
type AIGenerateResponse struct {
	Type   string `json:"type"`
	Result string `json:"result"`
}
