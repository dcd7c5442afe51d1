package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/barberia/internal/domain/models"
	"github.com/mamadbah2/barberia/internal/repository/mongodb"
)

// Service summarizes the booking journal for the shop owner.
type Service struct {
	journal mongodb.Journal
	loc     *time.Location
	logger  *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(journal mongodb.Journal, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{journal: journal, loc: loc, logger: logger}
}

// DailySummary is the aggregate of one day of journal activity.
type DailySummary struct {
	Day            string
	Booked         []models.JournalEntry
	FailedCommits  int
	Cancelled      []models.JournalEntry
	FailedCancels  int
	ExpectedIncome int
}

// Summarize aggregates the journal entries recorded during day in the shop timezone.
func (s *Service) Summarize(ctx context.Context, day time.Time) (DailySummary, error) {
	start, end := dayBounds(day.In(s.loc))

	entries, err := s.journal.EntriesBetween(ctx, start, end)
	if err != nil {
		return DailySummary{}, fmt.Errorf("load journal entries: %w", err)
	}

	summary := DailySummary{Day: start.Format(models.DateLayout)}
	for _, entry := range entries {
		switch entry.Action {
		case models.JournalBooked:
			if !entry.Success {
				summary.FailedCommits++
				continue
			}
			summary.Booked = append(summary.Booked, entry)
			summary.ExpectedIncome += entry.Price
		case models.JournalCancelled:
			if !entry.Success {
				summary.FailedCancels++
				continue
			}
			summary.Cancelled = append(summary.Cancelled, entry)
		default:
			s.logger.Debug("skip journal entry with unknown action", zap.String("action", string(entry.Action)))
		}
	}

	sort.SliceStable(summary.Booked, func(i, j int) bool {
		a, b := summary.Booked[i], summary.Booked[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Time < b.Time
	})

	return summary, nil
}

// GenerateDailyDigest renders the owner's WhatsApp digest for day.
func (s *Service) GenerateDailyDigest(ctx context.Context, day time.Time) (string, error) {
	summary, err := s.Summarize(ctx, day)
	if err != nil {
		return "", err
	}
	return FormatDigest(summary), nil
}

// FormatDigest renders a summary as a WhatsApp message.
func FormatDigest(summary DailySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Resumen del día %s*\n\n", summary.Day)

	if len(summary.Booked) == 0 {
		b.WriteString("Sin citas nuevas hoy.\n")
	} else {
		fmt.Fprintf(&b, "✅ Citas agendadas: %d\n", len(summary.Booked))
		for _, e := range summary.Booked {
			fmt.Fprintf(&b, "• %s %s · %s · %s (%s)\n", e.Date, e.Time, e.StaffMember, e.CustomerName, e.ServiceName)
		}
		fmt.Fprintf(&b, "💰 Ingreso esperado: %s\n", models.FormatPrice(summary.ExpectedIncome))
	}

	if len(summary.Cancelled) > 0 {
		fmt.Fprintf(&b, "\n❌ Cancelaciones: %d\n", len(summary.Cancelled))
		for _, e := range summary.Cancelled {
			fmt.Fprintf(&b, "• %s %s · %s · %s\n", e.Date, e.Time, e.StaffMember, e.CustomerName)
		}
	}

	if summary.FailedCommits > 0 || summary.FailedCancels > 0 {
		fmt.Fprintf(&b, "\n⚠️ Errores con la agenda: %d al reservar, %d al cancelar\n", summary.FailedCommits, summary.FailedCancels)
	}

	return strings.TrimRight(b.String(), "\n")
}

func dayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
