package models

// VariableRequest is the body of a variable upsert; the name comes from the URL
type VariableRequest struct {
	Values []string `json:"values"`
}

// PromptRequest replaces the working prompt
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// TokensResponse describes the tokens found in the working prompt
type TokensResponse struct {
	Tokens []string `json:"tokens"`
	Names  []string `json:"names"`
	Ready  bool     `json:"ready"`
}

// MatrixResponse is the expanded prompt set
type MatrixResponse struct {
	Prompts []string `json:"prompts"`
	Size    int      `json:"size"`
}
