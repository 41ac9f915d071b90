package seva

import (
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/sevabooking/internal/domain"
)

type Token struct {
	Number   string
	Sequence int
}

// GenerateTokenNumber issues the next token for (sacred, offering, date).
// Every booking in scope counts, cancelled ones included, so a token is never reissued.
// The result is only a proposal: the ledger must reject a duplicate sequence and the
// caller retries against a fresh read.
func GenerateTokenNumber(sacred domain.Sacred, offering domain.Offering, date time.Time, bookings []domain.SevaBooking) (Token, error) {
	if sacred.Code == "" {
		return Token{}, errors.New("sacred code is required")
	}
	if offering.SacredID != "" && offering.SacredID != sacred.ID {
		return Token{}, fmt.Errorf("offering %s does not belong to sacred %s", offering.ID, sacred.ID)
	}

	day := DayKey(date)
	used := 0
	for _, b := range bookings {
		if b.SacredID == sacred.ID && b.OfferingID == offering.ID && b.Date == day {
			used++
		}
	}

	seq := used + 1
	return Token{
		Number:   FormatToken(sacred.Code, offering.TokenCode(), date, seq),
		Sequence: seq,
	}, nil
}

// FormatToken renders SACRED-OFFERING-YYYYMMDD-NNN; the sequence widens past 999.
func FormatToken(sacredCode, offeringCode string, date time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%s-%03d", sacredCode, offeringCode, date.Format("20060102"), seq)
}
