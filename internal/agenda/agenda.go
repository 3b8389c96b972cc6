// Package agenda looks up upcoming committee meetings from the
// legislature's XML web service.
package agenda

import (
	"context"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vantage-os/vantage-cli/internal/config"
	"github.com/vantage-os/vantage-cli/internal/model"
	"github.com/vantage-os/vantage-cli/internal/relay"
)

// wslTimeLayout is the timestamp format the service emits.
const wslTimeLayout = "2006-01-02T15:04:05"

// Service queries committee meetings and their agendas.
type Service struct {
	fetcher relay.Fetcher
	cfg     config.AgendaConfig
	now     func() time.Time
}

// New creates a Service.
func New(fetcher relay.Fetcher, cfg config.AgendaConfig) *Service {
	return &Service{fetcher: fetcher, cfg: cfg, now: time.Now}
}

type committeeXML struct {
	Name string `xml:"Name"`
}

type meetingsXML struct {
	Meetings []struct {
		AgendaID   string `xml:"AgendaId"`
		Agency     string `xml:"Agency"`
		Date       string `xml:"Date"`
		Committees struct {
			Committee []committeeXML `xml:"Committee"`
		} `xml:"Committees"`
	} `xml:"CommitteeMeeting"`
}

type itemsXML struct {
	Items []struct {
		BillID      string `xml:"BillId"`
		Description string `xml:"HearingTypeDescription"`
	} `xml:"CommitteeMeetingItem"`
}

// Upcoming returns meetings for the tracked committees inside the
// configured window, sorted by date, each with its agenda items. A failed
// item lookup leaves that meeting's agenda empty.
func (s *Service) Upcoming(ctx context.Context) ([]model.Meeting, error) {
	begin := s.now()
	end := begin.AddDate(0, 0, s.windowDays())

	url := fmt.Sprintf("%s/CommitteeMeetingService.asmx/GetCommitteeMeetings?beginDate=%s&endDate=%s",
		strings.TrimRight(s.cfg.BaseURL, "/"),
		begin.Format("2006-01-02"), end.Format("2006-01-02"))
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, eris.Wrap(err, "agenda: fetch meetings")
	}

	var parsed meetingsXML
	if err := xml.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, eris.Wrap(err, "agenda: parse meetings xml")
	}

	var meetings []model.Meeting
	for _, m := range parsed.Meetings {
		name, ok := s.trackedCommittee(m.Committees.Committee)
		if !ok {
			continue
		}
		date, err := time.Parse(wslTimeLayout, m.Date)
		if err != nil {
			zap.L().Warn("agenda: unparseable meeting date",
				zap.String("agenda", m.AgendaID),
				zap.String("date", m.Date),
			)
			continue
		}
		meetings = append(meetings, model.Meeting{
			AgendaID:  m.AgendaID,
			Committee: name,
			Agency:    m.Agency,
			Date:      date,
		})
	}

	s.attachItems(ctx, meetings)

	sort.Slice(meetings, func(i, j int) bool { return meetings[i].Date.Before(meetings[j].Date) })
	return meetings, nil
}

func (s *Service) windowDays() int {
	if s.cfg.WindowDays <= 0 {
		return 7
	}
	return s.cfg.WindowDays
}

// trackedCommittee returns the first committee name on the meeting that
// matches the configured watch list (substring, case-insensitive).
func (s *Service) trackedCommittee(committees []committeeXML) (string, bool) {
	for _, c := range committees {
		for _, watched := range s.cfg.Committees {
			if strings.Contains(strings.ToLower(c.Name), strings.ToLower(watched)) {
				return c.Name, true
			}
		}
	}
	return "", false
}

// attachItems fans out over the meetings fetching each agenda's items.
// Item failures are logged and leave the meeting without items.
func (s *Service) attachItems(ctx context.Context, meetings []model.Meeting) {
	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	for i := range meetings {
		i := i
		g.Go(func() error {
			items, err := s.fetchItems(gCtx, meetings[i].AgendaID)
			if err != nil {
				zap.L().Warn("agenda: item lookup failed",
					zap.String("agenda", meetings[i].AgendaID),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			meetings[i].Items = items
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) fetchItems(ctx context.Context, agendaID string) ([]model.AgendaItem, error) {
	url := fmt.Sprintf("%s/CommitteeMeetingService.asmx/GetCommitteeMeetingItems?agendaId=%s",
		strings.TrimRight(s.cfg.BaseURL, "/"), agendaID)
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, eris.Wrap(err, "agenda: fetch items")
	}

	var parsed itemsXML
	if err := xml.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, eris.Wrap(err, "agenda: parse items xml")
	}

	var items []model.AgendaItem
	for _, it := range parsed.Items {
		if strings.TrimSpace(it.BillID) == "" {
			continue
		}
		items = append(items, model.AgendaItem{
			BillID:      it.BillID,
			Description: it.Description,
		})
	}
	return items, nil
}
