package model

import "encoding/json"

type Notification struct {
	URI           string           `json:"uri"`
	CID           string           `json:"cid"`
	Author        ProfileViewBasic `json:"author"`
	Reason        string           `json:"reason"`
	ReasonSubject string           `json:"reasonSubject,omitempty"`
	Record        json.RawMessage  `json:"record,omitempty"`
	IsRead        bool             `json:"isRead"`
	IndexedAt     string           `json:"indexedAt"`
}

type ConvoView struct {
	ID          string             `json:"id"`
	Members     []ProfileViewBasic `json:"members"`
	LastMessage json.RawMessage    `json:"lastMessage,omitempty"`
	UnreadCount int64              `json:"unreadCount"`
	Muted       bool               `json:"muted,omitempty"`
}
