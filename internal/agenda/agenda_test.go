package agenda

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-os/vantage-cli/internal/config"
)

type stubFetcher struct {
	responses map[string]string
}

func (s *stubFetcher) Fetch(_ context.Context, u string) (string, error) {
	for key, body := range s.responses {
		if strings.Contains(u, key) {
			return body, nil
		}
	}
	return "", eris.Errorf("no stub for %s", u)
}

func (s *stubFetcher) FetchBytes(ctx context.Context, u string) ([]byte, error) {
	body, err := s.Fetch(ctx, u)
	return []byte(body), err
}

func (s *stubFetcher) Post(context.Context, string, string, string) (string, error) {
	return "", eris.New("unused")
}

const meetingsResponse = `<?xml version="1.0"?>
<ArrayOfCommitteeMeeting>
  <CommitteeMeeting>
    <AgendaId>200</AgendaId>
    <Agency>House</Agency>
    <Date>2025-03-03T08:00:00</Date>
    <Committees><Committee><Name>Appropriations</Name></Committee></Committees>
  </CommitteeMeeting>
  <CommitteeMeeting>
    <AgendaId>100</AgendaId>
    <Agency>House</Agency>
    <Date>2025-03-01T10:00:00</Date>
    <Committees><Committee><Name>Environment &amp; Energy</Name></Committee></Committees>
  </CommitteeMeeting>
  <CommitteeMeeting>
    <AgendaId>300</AgendaId>
    <Agency>Senate</Agency>
    <Date>2025-03-02T13:30:00</Date>
    <Committees><Committee><Name>Transportation</Name></Committee></Committees>
  </CommitteeMeeting>
</ArrayOfCommitteeMeeting>`

const items100 = `<ArrayOfCommitteeMeetingItem>
  <CommitteeMeetingItem><BillId>HB 2200</BillId><HearingTypeDescription>Public Hearing</HearingTypeDescription></CommitteeMeetingItem>
  <CommitteeMeetingItem><BillId></BillId><HearingTypeDescription>Work Session</HearingTypeDescription></CommitteeMeetingItem>
</ArrayOfCommitteeMeetingItem>`

func testService(responses map[string]string) *Service {
	s := New(&stubFetcher{responses: responses}, config.AgendaConfig{
		BaseURL:    "https://wsl.example",
		Committees: []string{"Environment", "Appropriations"},
		WindowDays: 7,
	})
	s.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestUpcoming_FiltersAndSortsByDate(t *testing.T) {
	s := testService(map[string]string{
		"GetCommitteeMeetings?":    meetingsResponse,
		"GetCommitteeMeetingItems": items100,
	})

	meetings, err := s.Upcoming(context.Background())

	require.NoError(t, err)
	require.Len(t, meetings, 2)

	// Transportation is not watched; the rest sort chronologically.
	assert.Equal(t, "100", meetings[0].AgendaID)
	assert.Equal(t, "Environment & Energy", meetings[0].Committee)
	assert.Equal(t, "200", meetings[1].AgendaID)

	require.Len(t, meetings[0].Items, 1)
	assert.Equal(t, "HB 2200", meetings[0].Items[0].BillID)
	assert.Equal(t, "Public Hearing", meetings[0].Items[0].Description)
}

func TestUpcoming_ItemFailureLeavesMeetingEmpty(t *testing.T) {
	s := testService(map[string]string{
		"GetCommitteeMeetings?": meetingsResponse,
		// No item stub: every agenda lookup fails.
	})

	meetings, err := s.Upcoming(context.Background())

	require.NoError(t, err)
	require.Len(t, meetings, 2)
	assert.Empty(t, meetings[0].Items)
	assert.Empty(t, meetings[1].Items)
}

func TestUpcoming_RequestWindowUsesConfiguredDays(t *testing.T) {
	fetcher := &stubFetcher{responses: map[string]string{
		"GetCommitteeMeetings?": `<ArrayOfCommitteeMeeting/>`,
	}}
	s := New(fetcher, config.AgendaConfig{BaseURL: "https://wsl.example", WindowDays: 14})
	s.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }

	var sawURL string
	s.fetcher = fetchFunc(func(ctx context.Context, u string) (string, error) {
		sawURL = u
		return fetcher.Fetch(ctx, u)
	})

	_, err := s.Upcoming(context.Background())
	require.NoError(t, err)
	assert.Contains(t, sawURL, "beginDate=2025-03-01")
	assert.Contains(t, sawURL, "endDate=2025-03-15")
}

// fetchFunc adapts a function to the fetcher interface for URL assertions.
type fetchFunc func(ctx context.Context, url string) (string, error)

func (f fetchFunc) Fetch(ctx context.Context, url string) (string, error) { return f(ctx, url) }

func (f fetchFunc) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	s, err := f(ctx, url)
	return []byte(s), err
}

func (f fetchFunc) Post(context.Context, string, string, string) (string, error) {
	return "", eris.New("unused")
}
