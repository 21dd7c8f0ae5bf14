package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/tracklite/tracklite-api/internal/models"
	"github.com/tracklite/tracklite-api/internal/repository"
)

const (
	calendarEventsURL = "https://www.googleapis.com/calendar/v3/calendars/primary/events"
	calendarScope     = "https://www.googleapis.com/auth/calendar.events"
)

// CalendarService mirrors task due dates into the user's primary Google
// Calendar. It wraps golang.org/x/oauth2 for the authorization-code flow and
// for authorized API calls; expired access tokens are refreshed transparently
// by the token source and the refreshed credential is persisted back onto the
// user.
type CalendarService struct {
	config    *oauth2.Config
	userRepo  repository.UserRepository
	eventsURL string
}

// NewCalendarService creates a CalendarService with the given OAuth client
// credentials. redirectURL must match the authorized redirect URI of the
// Google Cloud OAuth client exactly.
func NewCalendarService(clientID, clientSecret, redirectURL string, userRepo repository.UserRepository) *CalendarService {
	return &CalendarService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{calendarScope},
			Endpoint:     google.Endpoint,
		},
		userRepo:  userRepo,
		eventsURL: calendarEventsURL,
	}
}

// AuthURL returns the URL to send the user to for calendar authorization.
// The caller's user ID rides along as the state parameter so the callback
// can attach the resulting credential to the right account. Offline access
// is requested so Google issues a refresh token.
func (s *CalendarService) AuthURL(userID uint64) string {
	return s.config.AuthCodeURL(
		strconv.FormatUint(userID, 10),
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange completes the OAuth flow and stores the credential blob on the user.
func (s *CalendarService) Exchange(ctx context.Context, user *models.User, code string) error {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("calendar: exchanging OAuth code: %w", err)
	}

	blob, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("calendar: encoding credentials: %w", err)
	}

	user.GoogleCredentials = string(blob)
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("calendar: saving credentials: %w", err)
	}

	return nil
}

// event is the subset of the Calendar API event resource we read and write.
type event struct {
	ID          string        `json:"id,omitempty"`
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	Start       eventDateTime `json:"start"`
	End         eventDateTime `json:"end"`
}

type eventDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

func taskEvent(task *models.Task) event {
	start := task.DueDate.UTC()
	end := start.Add(time.Hour)

	return event{
		Summary:     task.Title,
		Description: task.Description,
		Start:       eventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: "UTC"},
		End:         eventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: "UTC"},
	}
}

// CreateEvent inserts a calendar event for the task's due date and returns
// the event ID. The task must have a due date and the user must have
// connected their calendar.
func (s *CalendarService) CreateEvent(ctx context.Context, user *models.User, task *models.Task) (string, error) {
	client, err := s.client(ctx, user)
	if err != nil {
		return "", err
	}
	if task.DueDate == nil {
		return "", fmt.Errorf("calendar: task has no due date")
	}

	var created event
	if err := s.call(ctx, client, http.MethodPost, s.eventsURL, taskEvent(task), &created); err != nil {
		return "", err
	}

	return created.ID, nil
}

// UpdateEvent updates the task's calendar event in place.
func (s *CalendarService) UpdateEvent(ctx context.Context, user *models.User, task *models.Task) error {
	client, err := s.client(ctx, user)
	if err != nil {
		return err
	}
	if task.GoogleEventID == "" {
		return fmt.Errorf("calendar: task has no event id")
	}

	url := s.eventsURL + "/" + task.GoogleEventID
	return s.call(ctx, client, http.MethodPut, url, taskEvent(task), nil)
}

// DeleteEvent removes the task's calendar event.
func (s *CalendarService) DeleteEvent(ctx context.Context, user *models.User, eventID string) error {
	client, err := s.client(ctx, user)
	if err != nil {
		return err
	}

	url := s.eventsURL + "/" + eventID
	return s.call(ctx, client, http.MethodDelete, url, nil, nil)
}

// Connected reports whether the user has stored calendar credentials.
func (s *CalendarService) Connected(user *models.User) bool {
	return user.GoogleCredentials != ""
}

// client builds an authorized HTTP client from the user's stored credential.
// When the token source refreshed the access token, the new token is written
// back so the refresh happens at most once per expiry.
func (s *CalendarService) client(ctx context.Context, user *models.User) (*http.Client, error) {
	if user.GoogleCredentials == "" {
		return nil, fmt.Errorf("calendar: user has no stored credentials")
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(user.GoogleCredentials), &token); err != nil {
		return nil, fmt.Errorf("calendar: decoding credentials: %w", err)
	}

	source := s.config.TokenSource(ctx, &token)
	fresh, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("calendar: refreshing credentials: %w", err)
	}

	if fresh.AccessToken != token.AccessToken {
		if blob, err := json.Marshal(fresh); err == nil {
			user.GoogleCredentials = string(blob)
			if err := s.userRepo.Update(user); err != nil {
				return nil, fmt.Errorf("calendar: saving refreshed credentials: %w", err)
			}
		}
	}

	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(fresh)), nil
}

// call issues one API request and decodes the response into out when out is
// non-nil. There is no retry: the sync is best-effort by contract.
func (s *CalendarService) call(ctx context.Context, client *http.Client, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("calendar: encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("calendar: building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calendar: calling API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("calendar: API returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("calendar: decoding response: %w", err)
		}
	}

	return nil
}
