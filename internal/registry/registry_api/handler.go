package registry_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ticket-registry/internal/auth"
	"ticket-registry/internal/models"
	"ticket-registry/internal/qr"
	"ticket-registry/internal/registry"
	"ticket-registry/internal/sse"
	"ticket-registry/internal/utils"
)

type Handler struct {
	Registry *registry.Registry
	Emitter  *sse.NotificationEmitter
	QR       *qr.Generator
}

func NewHandler(reg *registry.Registry, emitter *sse.NotificationEmitter, qrGen *qr.Generator) *Handler {
	return &Handler{Registry: reg, Emitter: emitter, QR: qrGen}
}

// Routes mounts the registry surface on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/{eventID}", h.GetEvent)
		r.Get("/{eventID}/price", h.CalculatePrice)
		r.Get("/{eventID}/stats", h.GetEventStats)
		r.Get("/{eventID}/notifications", h.StreamNotifications)
		r.Post("/{eventID}/cancel", h.CancelEvent)
		r.Get("/{eventID}/tickets", h.ListEventTickets)
		r.Post("/{eventID}/tickets", h.MintTicket)
	})
	r.Route("/tickets", func(r chi.Router) {
		r.Get("/{ticketID}", h.GetTicket)
		r.Get("/{ticketID}/qr", h.TicketQR)
		r.Post("/{ticketID}/use", h.UseTicket)
		r.Post("/{ticketID}/transfer", h.TransferTicket)
		r.Post("/{ticketID}/refund", h.RefundTicket)
	})
}

// statusForError maps the registry error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrEventNotFound), errors.Is(err, models.ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrUnauthorized), errors.Is(err, models.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInsufficientPayment):
		return http.StatusPaymentRequired
	case errors.Is(err, models.ErrSoldOut),
		errors.Is(err, models.ErrEventCancelled),
		errors.Is(err, models.ErrTicketUsed),
		errors.Is(err, models.ErrAlreadyCancelled),
		errors.Is(err, models.ErrNotCancelled),
		errors.Is(err, models.ErrZeroCapacity):
		return http.StatusConflict
	case errors.Is(err, models.ErrChangeTransfer), errors.Is(err, models.ErrRefundTransfer):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	utils.WriteJSON(w, statusForError(err), utils.ErrorResponse(message, err.Error()))
}

func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

// ---------------- events ----------------

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	event, err := h.Registry.CreateEvent(r.Context(), auth.Caller(r.Context()), req)
	if err != nil {
		h.fail(w, "failed to create event", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("event created", event))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := urlID(r, "eventID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid event id", err.Error()))
		return
	}

	event, err := h.Registry.GetEventDetails(r.Context(), eventID)
	if err != nil {
		h.fail(w, "event not found", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event details", event))
}

func (h *Handler) CalculatePrice(w http.ResponseWriter, r *http.Request) {
	eventID, err := urlID(r, "eventID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid event id", err.Error()))
		return
	}

	price, err := h.Registry.CalculateTicketPrice(r.Context(), eventID)
	if err != nil {
		h.fail(w, "failed to calculate price", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("current ticket price", models.PriceResponse{EventID: eventID, Price: price}))
}

func (h *Handler) GetEventStats(w http.ResponseWriter, r *http.Request) {
	eventID, err := urlID(r, "eventID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid event id", err.Error()))
		return
	}

	stats, err := h.Registry.GetEventStats(r.Context(), eventID)
	if err != nil {
		h.fail(w, "failed to load event stats", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event stats", stats))
}

func (h *Handler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := urlID(r, "eventID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid event id", err.Error()))
		return
	}

	if err := h.Registry.CancelEvent(r.Context(), auth.Caller(r.Context()), eventID); err != nil {
		h.fail(w, "failed to cancel event", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event cancelled", nil))
}

func (h *Handler) ListEventTickets(w http.ResponseWriter, r *http.Request) {
	eventID, err := urlID(r, "eventID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid event id", err.Error()))
		return
	}

	tickets, err := h.Registry.GetEventTickets(r.Context(), eventID)
	if err != nil {
		h.fail(w, "failed to list tickets", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event tickets", tickets))
}

func (h *Handler) MintTicket(w http.ResponseWriter, r *http.Request) {
	eventID, err := urlID(r, "eventID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid event id", err.Error()))
		return
	}

	var req models.MintTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	ticket, err := h.Registry.MintTicket(r.Context(), auth.Caller(r.Context()), eventID, req.Seat, req.Payment)
	if err != nil {
		// A change-transfer failure means the mint committed; return the
		// ticket so the caller knows it stands and the change is owed.
		if errors.Is(err, models.ErrChangeTransfer) {
			resp := utils.ErrorResponse("ticket minted but change transfer failed", err.Error())
			resp.Data = ticket
			utils.WriteJSON(w, http.StatusBadGateway, resp)
			return
		}
		h.fail(w, "failed to mint ticket", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("ticket minted", ticket))
}

// ---------------- tickets ----------------

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := urlID(r, "ticketID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid ticket id", err.Error()))
		return
	}

	details, err := h.Registry.GetTicketDetails(r.Context(), ticketID)
	if err != nil {
		h.fail(w, "ticket not found", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ticket details", details))
}

// TicketQR serves the encrypted QR proof for a ticket. Only the current
// holder may fetch it.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	ticketID, err := urlID(r, "ticketID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid ticket id", err.Error()))
		return
	}

	details, err := h.Registry.GetTicketDetails(r.Context(), ticketID)
	if err != nil {
		h.fail(w, "ticket not found", err)
		return
	}
	if details.Owner != auth.Caller(r.Context()) {
		h.fail(w, "only the holder may fetch the QR proof", models.ErrNotOwner)
		return
	}

	png, err := h.QR.EncryptedQR(*details)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to render QR", err.Error()))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) UseTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := urlID(r, "ticketID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid ticket id", err.Error()))
		return
	}

	if err := h.Registry.UseTicket(r.Context(), auth.Caller(r.Context()), ticketID); err != nil {
		h.fail(w, "failed to use ticket", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ticket used", nil))
}

func (h *Handler) TransferTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := urlID(r, "ticketID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid ticket id", err.Error()))
		return
	}

	var req models.TransferTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	if req.To == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", "to is required"))
		return
	}

	if err := h.Registry.TransferTicket(r.Context(), auth.Caller(r.Context()), req.To, ticketID); err != nil {
		h.fail(w, "failed to transfer ticket", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ticket transferred", nil))
}

func (h *Handler) RefundTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := urlID(r, "ticketID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid ticket id", err.Error()))
		return
	}

	if err := h.Registry.RefundTicket(r.Context(), auth.Caller(r.Context()), ticketID); err != nil {
		h.fail(w, "failed to refund ticket", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ticket refunded", nil))
}

// StreamNotifications streams an event's notifications over SSE until the
// client disconnects.
func (h *Handler) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	eventID, err := urlID(r, "eventID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid event id", err.Error()))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	notifications := h.Emitter.Subscribe(r.Context(), eventID)
	for n := range notifications {
		data, err := json.Marshal(n)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", n.Type, data)
		flusher.Flush()
	}
}
