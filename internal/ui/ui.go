// Package ui provides the main entry point for the UI.
package ui

import (
	"github.com/palemoky/trivia-rush/internal/client"
	"github.com/palemoky/trivia-rush/internal/protocol/codec"
	"github.com/palemoky/trivia-rush/internal/ui/model"
)

// NewOnlineModel creates a new OnlineModel for online game mode.
func NewOnlineModel(serverURL string, format codec.Format) *model.OnlineModel {
	return model.NewOnlineModel(client.NewClient(serverURL, format))
}
