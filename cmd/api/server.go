package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/herniaclinic/clinic-chat/internal/auth"
	"github.com/herniaclinic/clinic-chat/internal/data"
	"github.com/herniaclinic/clinic-chat/internal/hub"
)

// The handler layer depends on small consumer-side interfaces rather than
// the concrete gorm stores so tests can substitute in-memory fakes.

type conversationStore interface {
	CreateConversation(ctx context.Context, patientName string, clientID *string, creator data.SenderSnapshot) (*data.Conversation, error)
	ListConversations(ctx context.Context) ([]*data.ConversationSummary, error)
	GetConversationWithMessages(ctx context.Context, id string) (*data.Conversation, error)
	MessageAuthoredBy(ctx context.Context, conversationID, userID string) (bool, error)
	AppendMessage(ctx context.Context, conversationID, content string, sender data.SenderSnapshot, at time.Time) (*data.Message, error)
}

type clientStore interface {
	CreateClient(ctx context.Context, in data.ClientInput) (*data.Client, error)
	GetClient(ctx context.Context, id string) (*data.Client, error)
	ListClients(ctx context.Context) ([]*data.ClientSummary, error)
	UpdateClient(ctx context.Context, id string, in data.ClientInput) (*data.Client, error)
	ClientExists(ctx context.Context, id string) (bool, error)
}

type appointmentStore interface {
	CreateAppointment(ctx context.Context, in data.AppointmentInput) (*data.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*data.Appointment, error)
	ListAppointments(ctx context.Context) ([]*data.AppointmentSummary, error)
	ListAppointmentsForClient(ctx context.Context, clientID string) ([]*data.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, in data.AppointmentInput) (*data.Appointment, error)
}

type scheduleStore interface {
	CreateSchedule(ctx context.Context, staffUserID, name string) (*data.Schedule, error)
	GetScheduleForStaff(ctx context.Context, staffUserID string) (*data.Schedule, error)
	ReplaceSlots(ctx context.Context, scheduleID string, slots []data.SlotInput) (*data.Schedule, error)
}

type userStore interface {
	GetUserByEmail(ctx context.Context, email string) (*data.User, error)
}

// liveHub is the slice of the broadcast hub the handlers and the
// websocket endpoint use.
type liveHub interface {
	Register(hub.Sender) int64
	Unregister(int64)
	Join(int64, string)
	Leave(int64, string)
	Broadcast(string, *data.Message) error
}

// Server holds the handler dependencies: stores, the broadcast hub, the
// auto-responder hook and the token manager.
type Server struct {
	convs     conversationStore
	clients   clientStore
	appts     appointmentStore
	schedules scheduleStore
	users     userStore
	hub       liveHub
	auth      *auth.JWTManager

	// respond maps inbound text to an optional canned reply. Injected so
	// tests can silence or script it; production wires autoreply.Respond.
	respond func(string) string

	log zerolog.Logger
}

// newServer returns a ready-to-use Server wired with stores, hub, token
// manager and responder.
func newServer(
	convs conversationStore,
	clients clientStore,
	appts appointmentStore,
	schedules scheduleStore,
	users userStore,
	h liveHub,
	authMgr *auth.JWTManager,
	respond func(string) string,
	log zerolog.Logger,
) *Server {
	return &Server{
		convs:     convs,
		clients:   clients,
		appts:     appts,
		schedules: schedules,
		users:     users,
		hub:       h,
		auth:      authMgr,
		respond:   respond,
		log:       log,
	}
}
