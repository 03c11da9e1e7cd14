package models

import "time"

// WSFrame is the JSON envelope for every websocket message in both directions.
type WSFrame struct {
	Type string      `json:"type"` // "joinGroup","leaveGroup","updateContent","setTyping","contentUpdated","typingIndicator","userConnected","userDisconnected","error"
	Data interface{} `json:"data"`
}

// Server-to-client event types.
const (
	EventContentUpdated   = "contentUpdated"
	EventTypingIndicator  = "typingIndicator"
	EventUserConnected    = "userConnected"
	EventUserDisconnected = "userDisconnected"
	EventError            = "error"
)

/*** Client-to-server operations ***/

type JoinGroup struct {
	ResumeID string `json:"resumeId"`
}

type LeaveGroup struct {
	ResumeID string `json:"resumeId"`
}

type UpdateContent struct {
	ResumeID string `json:"resumeId"`
	Content  string `json:"content"`
	Section  string `json:"section"`
}

type SetTyping struct {
	ResumeID string `json:"resumeId"`
	Section  string `json:"section"`
	IsTyping bool   `json:"isTyping"`
}

/*** Server-to-client events ***/

// ContentUpdated carries one edit to every other member of a resume group.
// Timestamp is stamped by the server in UTC; the payload is never persisted here.
type ContentUpdated struct {
	ResumeID  string    `json:"resumeId"`
	Content   string    `json:"content"`
	Section   string    `json:"section"`
	UpdatedBy string    `json:"updatedBy"`
	Timestamp time.Time `json:"timestamp"`
}

type TypingIndicator struct {
	ResumeID string `json:"resumeId"`
	Section  string `json:"section"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	IsTyping bool   `json:"isTyping"`
}

// UserPresence announces a user joining or leaving a resume group.
// Presence is scoped to the groups a user actually shares, never global.
type UserPresence struct {
	ResumeID string `json:"resumeId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

/*** AI generation ***/

type GenerateContentRequest struct {
	JobDescription string   `json:"jobDescription"`
	Skills         []string `json:"skills"`
	Experience     string   `json:"experience"`
}

type SuggestSkillsRequest struct {
	JobDescription string `json:"jobDescription"`
}

type CoverLetterRequest struct {
	JobDescription string `json:"jobDescription"`
	CompanyName    string `json:"companyName"`
}

type GenerationResponse struct {
	Content   string             `json:"content"`
	RequestID string             `json:"requestId"`
	Metadata  GenerationMetadata `json:"metadata"`
}

type GenerationMetadata struct {
	ProcessingTime int    `json:"processingTimeMs"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
