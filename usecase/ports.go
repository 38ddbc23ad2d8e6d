package usecase

import "github.com/satriahrh/lisan/domain/entities"

// Notifier receives user-facing outcome messages
type Notifier interface {
	Enqueue(title, description string, kind entities.NotificationKind) string
}

// EventSink is told about every observable change of the coordinator
type EventSink interface {
	StateChanged(snapshot Snapshot)
}

// Snapshot is a read copy of the coordinator state
type Snapshot struct {
	Pair          entities.LanguagePair `json:"pair"`
	SourceText    string                `json:"source_text"`
	ResultText    string                `json:"result_text"`
	ResultStale   bool                  `json:"result_stale"`
	IsTranslating bool                  `json:"is_translating"`
	IsListening   bool                  `json:"is_listening"`
	CanListen     bool                  `json:"can_listen"`
}

type nopSink struct{}

func (nopSink) StateChanged(Snapshot) {}
