package controllers

import (
	"net/http"

	"github.com/angelmondragon/autoshop-backend/api/responses"
	"github.com/angelmondragon/autoshop-backend/api/validators"
	"github.com/angelmondragon/autoshop-backend/internal/notifications"
	"github.com/angelmondragon/autoshop-backend/pkg/logger"
)

// ListNotifications pages through staff alerts, newest first. Filters:
// unread_only and type.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("notifications service"))
			return
		}

		params, err := notificationFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

func notificationFilters(r *http.Request) (notifications.ListParams, error) {
	page, err := validators.ParsePagination(r)
	if err != nil {
		return notifications.ListParams{}, err
	}
	unreadOnly, err := validators.ParseQueryBool(r, "unread_only")
	if err != nil {
		return notifications.ListParams{}, err
	}
	return notifications.ListParams{
		Limit:      page.Limit,
		Cursor:     page.Cursor,
		UnreadOnly: unreadOnly,
		Type:       validators.ParseQueryText(r, "type", 32),
	}, nil
}

func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("notifications service"))
			return
		}
		notificationID, err := validators.ParseUUIDParam(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkRead(r.Context(), notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": notificationID, "read": true})
	}
}

func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("notifications service"))
			return
		}
		count, err := svc.MarkAllRead(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"updated": count})
	}
}
