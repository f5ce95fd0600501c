package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
)

const gameStartLabel = "Game start"

// HistoryEntry is one board snapshot plus the player who moves next.
type HistoryEntry struct {
	Squares  Board  `json:"squares"`
	NextTurn string `json:"next_turn"`
}

// HistoryLog is the append-only move log behind time travel. Entry 0 is
// always the empty board with X to move.
type HistoryLog struct {
	entries []HistoryEntry
}

func NewHistoryLog() *HistoryLog {
	return &HistoryLog{
		entries: []HistoryEntry{{Squares: NewBoard(), NextTurn: PlayerX}},
	}
}

func (that *HistoryLog) Len() int {
	return len(that.entries)
}

func (that *HistoryLog) At(index int) (HistoryEntry, error) {
	if index < 0 || index >= len(that.entries) {
		return HistoryEntry{}, fmt.Errorf("%w: %d", apperror.ErrHistoryOutOfRange, index)
	}
	return that.entries[index], nil
}

func (that *HistoryLog) Append(entry HistoryEntry) {
	that.entries = append(that.entries, entry)
}

// TruncateAfter drops every entry past index, discarding the abandoned
// future after time travel.
func (that *HistoryLog) TruncateAfter(index int) {
	if index < 0 || index >= len(that.entries) {
		return
	}
	that.entries = that.entries[:index+1]
}

// Entries returns a copy of the log for display.
func (that *HistoryLog) Entries() []HistoryEntry {
	entries := make([]HistoryEntry, len(that.entries))
	copy(entries, that.entries)
	return entries
}

// Label returns the display name of an entry, e.g. "Move #2: Player O".
// The player named is the one who made the move that produced the entry.
func (that *HistoryLog) Label(index int) string {
	if index <= 0 {
		return gameStartLabel
	}
	return fmt.Sprintf("Move #%d: Player %s", index, that.entries[index-1].NextTurn)
}

func (that *HistoryLog) Labels() []string {
	labels := make([]string, len(that.entries))
	for i := range that.entries {
		labels[i] = that.Label(i)
	}
	return labels
}
