package system

import "net/http"

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	page, err := h.Notifier.List(r.Context(), actor.ID, pageParam(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) UnreadNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	notes, err := h.Notifier.Unread(ctx, actor.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	count, err := h.Notifier.UnreadCount(ctx, actor.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notes,
		"unread_count":  count,
	})
}

// MarkNotificationRead answers success=false for ids the caller does not own.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	success, err := h.Notifier.MarkRead(r.Context(), id, actor.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": success})
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}
	if err := h.Notifier.MarkAllRead(r.Context(), actor.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
