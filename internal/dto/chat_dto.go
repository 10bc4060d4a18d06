package dto

type StartChatRequest struct {
	UserId string `json:"user_id"` // Optional; a guest id is minted when empty
}

type StartChatResponse struct {
	UserId string `json:"user_id"`
	ChatId string `json:"chat_id"`
}

type QueryRequest struct {
	UserId string `json:"user_id" validate:"required"`
	ChatId string `json:"chat_id" validate:"required"`
	Query  string `json:"query" validate:"required"`
}

type SourceResponse struct {
	Snippet      string `json:"snippet"`
	PageLabel    string `json:"page_label"`
	DocumentName string `json:"document_name"`
}

type QueryResponse struct {
	Response string           `json:"response"`
	Sources  []SourceResponse `json:"sources"`
}

type ChatTurnResponse struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

type ChatHistoryResponse struct {
	History []ChatTurnResponse `json:"history"`
}
