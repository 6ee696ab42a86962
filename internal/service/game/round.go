package game

import (
	"strings"
	"time"

	"draw-guess-be/internal/sessionlog"
)

// 回合结束原因
const (
	END_REASON_ALL_GUESSED = "AllGuessed"
	END_REASON_TIMEOUT     = "Timeout"
	// 房主重开或房间被销毁时仍在进行的回合
	END_REASON_ABORTED = "Aborted"
)

// Round 是一个画手/词语周期。EndedAt 被设置之后不再修改。
type Round struct {
	Number    int
	DrawerID  string
	Word      string
	HintMask  string
	Guessed   []string
	StartedAt time.Time
	EndedAt   *time.Time
	EndReason string

	guessed map[string]struct{}
	// 回合开始时在座的非画手玩家，只有他们能得分
	eligible map[string]struct{}
}

func newRound(number int, drawerID, word string, guessers []string, now time.Time) *Round {
	eligible := make(map[string]struct{}, len(guessers))
	for _, id := range guessers {
		if id != drawerID {
			eligible[id] = struct{}{}
		}
	}

	return &Round{
		Number:    number,
		DrawerID:  drawerID,
		Word:      word,
		HintMask:  InitHint(word),
		Guessed:   make([]string, 0, len(eligible)),
		StartedAt: now,
		guessed:   make(map[string]struct{}, len(eligible)),
		eligible:  eligible,
	}
}

func (r *Round) Active() bool {
	return r != nil && r.EndedAt == nil
}

// Matches compares a guess against the secret word ignoring surrounding
// whitespace and case.
func (r *Round) Matches(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(r.Word))
}

func (r *Round) HasGuessed(playerID string) bool {
	_, ok := r.guessed[playerID]
	return ok
}

func (r *Round) IsEligible(playerID string) bool {
	_, ok := r.eligible[playerID]
	return ok
}

// recordGuess 返回 false 表示重复或无资格
func (r *Round) recordGuess(playerID string) bool {
	if !r.Active() || !r.IsEligible(playerID) || r.HasGuessed(playerID) {
		return false
	}

	r.guessed[playerID] = struct{}{}
	r.Guessed = append(r.Guessed, playerID)

	return true
}

func (r *Round) AllGuessed() bool {
	return len(r.guessed) >= len(r.eligible)
}

// end marks the round finished. Only the first caller wins; later calls
// report false and change nothing.
func (r *Round) end(reason string, now time.Time) bool {
	if !r.Active() {
		return false
	}

	r.EndedAt = &now
	r.EndReason = reason

	return true
}

func (r *Round) record(roomID string) sessionlog.RoundRecord {
	rec := sessionlog.RoundRecord{
		RoomID:        roomID,
		RoundNumber:   r.Number,
		DrawerID:      r.DrawerID,
		Word:          r.Word,
		FinalHintMask: r.HintMask,
		GuessedIDs:    append([]string(nil), r.Guessed...),
		EndReason:     r.EndReason,
		StartedAt:     r.StartedAt,
	}
	if r.EndedAt != nil {
		rec.EndedAt = *r.EndedAt
	}

	return rec
}
