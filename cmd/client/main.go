package main

import (
	"flag"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/trivia-rush/internal/protocol/codec"
	"github.com/palemoky/trivia-rush/internal/ui"
)

func main() {
	serverAddr := flag.String("server", "localhost:1780", "server address")
	wire := flag.String("format", "json", "wire format: json or protobuf")
	flag.Parse()

	format, err := codec.ParseFormat(*wire)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	serverURL := fmt.Sprintf("ws://%s/ws", *serverAddr)
	model := ui.NewOnlineModel(serverURL, format)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("❌ Error running client: %v", err)
	}
}
