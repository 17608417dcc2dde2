package google

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"planner/internal/domain/calsync"

	"google.golang.org/api/calendar/v3"
)

const channelTypeWebHook = "web_hook"

// Client реализация calsync.Remote поверх Calendar API v3
type Client struct {
	svc *calendar.Service
}

func newClient(svc *calendar.Service) *Client {
	return &Client{svc: svc}
}

// List повторяющиеся события разворачиваются в экземпляры
func (c *Client) List(ctx context.Context, calendarID string, q calsync.ListQuery) (*calsync.ListPage, error) {
	call := c.svc.Events.List(calendarID).
		Context(ctx).
		SingleEvents(true).
		ShowDeleted(q.ShowDeleted)

	if q.SyncToken != "" {
		call = call.SyncToken(q.SyncToken)
	} else if !q.TimeMin.IsZero() {
		call = call.TimeMin(q.TimeMin.UTC().Format(time.RFC3339))
	}
	if q.PageToken != "" {
		call = call.PageToken(q.PageToken)
	}
	if q.MaxResults > 0 {
		call = call.MaxResults(int64(q.MaxResults))
	}

	resp, err := call.Do()
	if err != nil {
		return nil, listError(err)
	}

	page := &calsync.ListPage{
		Items:         make([]calsync.RemoteEvent, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
		NextSyncToken: resp.NextSyncToken,
	}
	for _, item := range resp.Items {
		page.Items = append(page.Items, fromAPI(item))
	}

	return page, nil
}

func (c *Client) Insert(ctx context.Context, calendarID string, ev *calsync.RemoteEvent) (*calsync.RemoteEvent, error) {
	created, err := c.svc.Events.Insert(calendarID, toAPI(ev)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	out := fromAPI(created)
	return &out, nil
}

func (c *Client) Patch(ctx context.Context, calendarID, eventID string, ev *calsync.RemoteEvent) (*calsync.RemoteEvent, error) {
	patched, err := c.svc.Events.Patch(calendarID, eventID, toAPI(ev)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("patch event: %w", err)
	}
	out := fromAPI(patched)
	return &out, nil
}

func (c *Client) Delete(ctx context.Context, calendarID, eventID string) error {
	if err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return deleteError(err)
	}
	return nil
}

func (c *Client) Watch(ctx context.Context, calendarID string, spec calsync.WatchSpec) (*calsync.WatchResponse, error) {
	ch, err := c.svc.Events.Watch(calendarID, &calendar.Channel{
		Id:      spec.ChannelID,
		Type:    channelTypeWebHook,
		Address: spec.Address,
		Token:   spec.Token,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("watch events: %w", err)
	}

	resp := &calsync.WatchResponse{ResourceID: ch.ResourceId}
	if ch.Expiration > 0 {
		resp.Expiration = time.UnixMilli(ch.Expiration).UTC()
	}
	return resp, nil
}

// Stop уже остановленный канал не ошибка
func (c *Client) Stop(ctx context.Context, channelID, resourceID string) error {
	err := c.svc.Channels.Stop(&calendar.Channel{Id: channelID, ResourceId: resourceID}).Context(ctx).Do()
	if err != nil {
		if code := apiStatus(err); code == http.StatusNotFound || code == http.StatusGone {
			return nil
		}
		return fmt.Errorf("stop channel: %w", err)
	}
	return nil
}

func fromAPI(item *calendar.Event) calsync.RemoteEvent {
	return calsync.RemoteEvent{
		ID:               item.Id,
		Status:           item.Status,
		Summary:          item.Summary,
		Description:      item.Description,
		Location:         item.Location,
		ETag:             item.Etag,
		RecurringEventID: item.RecurringEventId,
		Start:            fromAPITime(item.Start),
		End:              fromAPITime(item.End),
	}
}

// fromAPITime нераспознанное время оставляет пустым, такое событие будет пропущено
func fromAPITime(t *calendar.EventDateTime) calsync.RemoteTime {
	if t == nil {
		return calsync.RemoteTime{}
	}
	out := calsync.RemoteTime{Date: t.Date, TimeZone: t.TimeZone}
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			out.DateTime = parsed
		}
	}
	return out
}

// toAPI пустые поля отправляются явно, иначе patch не очистит их в Google
func toAPI(ev *calsync.RemoteEvent) *calendar.Event {
	return &calendar.Event{
		Summary:         ev.Summary,
		Description:     ev.Description,
		Location:        ev.Location,
		Start:           toAPITime(ev.Start),
		End:             toAPITime(ev.End),
		ForceSendFields: []string{"Summary", "Description", "Location"},
	}
}

// toAPITime при смене типа события старое поле обнуляется
func toAPITime(t calsync.RemoteTime) *calendar.EventDateTime {
	if t.Date != "" {
		return &calendar.EventDateTime{
			Date:       t.Date,
			NullFields: []string{"DateTime", "TimeZone"},
		}
	}
	return &calendar.EventDateTime{
		DateTime:   t.DateTime.Format(time.RFC3339),
		TimeZone:   t.TimeZone,
		NullFields: []string{"Date"},
	}
}
