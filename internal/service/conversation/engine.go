package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/barberia/internal/domain/models"
)

const expiryNoticeTimeout = 10 * time.Second

// Sender delivers a text message to a customer.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// Slots offers dates and free times.
type Slots interface {
	UpcomingDates() []string
	AvailableTimes(ctx context.Context, staff, date string) []string
}

// Booker performs backend writes and lookups on behalf of a conversation.
type Booker interface {
	Commit(ctx context.Context, draft models.Draft) error
	FindByName(ctx context.Context, name string) ([]models.Booking, error)
	Cancel(ctx context.Context, booking models.Booking) error
}

// outcome tells Handle what to do with the session once a step returns.
type outcome int

const (
	// keep leaves the session open.
	keep outcome = iota
	// finish clears the session.
	finish
	// restart clears the session and greets the customer again.
	restart
)

type stepFunc func(ctx context.Context, s *Session, in input, out *outbox) outcome

// outbox collects the replies of a turn in the order they are produced, together with
// the logger scoped to that turn.
type outbox struct {
	messages []string
	logger   *zap.Logger
}

func (o *outbox) add(msg string) {
	o.messages = append(o.messages, msg)
}

// Engine runs the booking state machine for every customer.
type Engine struct {
	sessions *Registry
	catalog  models.Catalog
	slots    Slots
	booker   Booker
	sender   Sender
	steps    map[Step]stepFunc
	validate *validator.Validate
	logger   *zap.Logger
}

// NewEngine wires the state machine. inactivity is the session expiry window.
func NewEngine(catalog models.Catalog, slots Slots, booker Booker, sender Sender, inactivity time.Duration, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		catalog:  catalog,
		slots:    slots,
		booker:   booker,
		sender:   sender,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
	e.sessions = NewRegistry(inactivity, e.notifyExpired, logger.Named("sessions"))
	e.steps = map[Step]stepFunc{
		StepGreeting:         e.greet,
		StepMainMenu:         e.mainMenu,
		StepDataCollection:   e.collectData,
		StepCancelSearch:     e.searchBookings,
		StepCancelSelect:     e.selectCancellation,
		StepStaffSelection:   e.selectStaff,
		StepDateSelection:    e.selectDate,
		StepTimeSelection:    e.selectTime,
		StepServiceSelection: e.selectService,
		StepConfirmation:     e.confirm,
		StepModifyMenu:       e.modify,
	}
	return e
}

// Sessions exposes the registry backing the engine.
func (e *Engine) Sessions() *Registry {
	return e.sessions
}

// Close stops every pending inactivity timer.
func (e *Engine) Close() {
	e.sessions.Stop()
}

// Handle processes one inbound text from customerID. Turns for the same customer are
// serialized; replies are sent in order before the next turn starts.
func (e *Engine) Handle(ctx context.Context, customerID, text string) {
	turn := e.sessions.Begin(customerID)
	defer turn.End()

	logger := e.logger.With(zap.String("from", customerID), zap.String("turn_id", uuid.NewString()))
	in := newInput(text)

	if in.isRestart() {
		turn.Clear()
	}

	session, ok := turn.Session()
	if !ok {
		session = turn.Create()
	}

	out := &outbox{logger: logger}
	from := session.Step
	result := e.dispatch(ctx, session, in, out, logger)
	if result == restart {
		turn.Clear()
		session = turn.Create()
		result = e.dispatch(ctx, session, in, out, logger)
	}

	switch result {
	case finish:
		turn.Clear()
		logger.Info("conversation finished", zap.String("step", string(from)))
	default:
		turn.Arm()
		logger.Debug("step handled", zap.String("from_step", string(from)), zap.String("to_step", string(session.Step)))
	}

	e.deliver(ctx, customerID, out.messages, logger)
}

func (e *Engine) dispatch(ctx context.Context, s *Session, in input, out *outbox, logger *zap.Logger) outcome {
	handle, ok := e.steps[s.Step]
	if !ok {
		logger.Error("no handler for step, restarting conversation", zap.String("step", string(s.Step)))
		return restart
	}
	return handle(ctx, s, in, out)
}

func (e *Engine) deliver(ctx context.Context, to string, messages []string, logger *zap.Logger) {
	for _, msg := range messages {
		if err := e.sender.Send(ctx, to, msg); err != nil {
			logger.Warn("failed to send reply", zap.Error(err))
		}
	}
}

func (e *Engine) notifyExpired(customerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), expiryNoticeTimeout)
	defer cancel()
	if err := e.sender.Send(ctx, customerID, msgSessionExpired); err != nil {
		e.logger.Warn("failed to send expiry notice", zap.String("from", customerID), zap.Error(err))
	}
}

func (e *Engine) greet(_ context.Context, s *Session, _ input, out *outbox) outcome {
	s.Step = StepMainMenu
	out.add(welcomePrompt(e.catalog.ShopName))
	return keep
}

func (e *Engine) mainMenu(_ context.Context, s *Session, in input, out *outbox) outcome {
	switch in.normalized {
	case "1":
		s.Step = StepDataCollection
		out.add(msgDataCollection)
	case "2":
		s.Step = StepCancelSearch
		out.add(msgCancelSearch)
	default:
		out.add(msgInvalidOption)
		out.add(welcomePrompt(e.catalog.ShopName))
	}
	return keep
}

func (e *Engine) collectData(_ context.Context, s *Session, in input, out *outbox) outcome {
	parts := strings.Split(in.raw, ",")
	if len(parts) < 2 {
		out.add(msgInvalidFormat)
		return keep
	}
	name := strings.TrimSpace(parts[0])
	phone := strings.TrimSpace(parts[1])
	if name == "" || phone == "" {
		out.add(msgInvalidFormat)
		return keep
	}

	// Contact fields follow the same rules the committer enforces.
	contact := models.Draft{CustomerName: name, Phone: phone}
	if err := e.validate.StructPartial(contact, "CustomerName", "Phone"); err != nil {
		out.logger.Debug("contact data rejected", zap.Error(err))
		out.add(msgInvalidFormat)
		return keep
	}

	s.Draft.CustomerName = name
	s.Draft.Phone = phone
	if s.Draft.HasService() {
		e.enterConfirmation(s, out)
		return keep
	}
	e.enterStaffSelection(s, out)
	return keep
}

func (e *Engine) selectStaff(_ context.Context, s *Session, in input, out *outbox) outcome {
	c := in.choose(len(e.catalog.Staff))
	if !c.valid {
		out.add(msgInvalidOption)
		return keep
	}

	s.Draft.StaffMember = e.catalog.Staff[c.index]
	if s.Draft.HasService() {
		e.enterConfirmation(s, out)
		return keep
	}
	e.enterDateSelection(s, out)
	return keep
}

func (e *Engine) selectDate(ctx context.Context, s *Session, in input, out *outbox) outcome {
	c := in.choose(len(s.CandidateDates))
	if !c.valid {
		out.add(msgInvalidDate)
		return keep
	}
	e.enterTimeSelection(ctx, s, s.CandidateDates[c.index], out)
	return keep
}

func (e *Engine) selectTime(_ context.Context, s *Session, in input, out *outbox) outcome {
	n := len(s.CandidateTimes)
	// The option right after the real slots goes back to date selection.
	if c := in.choose(n + 1); c.valid && c.index == n {
		e.enterDateSelection(s, out)
		return keep
	}

	c := in.choose(n)
	if !c.valid {
		out.add(msgInvalidTime)
		return keep
	}

	s.Draft.Time = s.CandidateTimes[c.index]
	if s.Draft.HasService() {
		e.enterConfirmation(s, out)
		return keep
	}
	s.Step = StepServiceSelection
	out.add(servicePrompt(e.catalog.Services))
	return keep
}

func (e *Engine) selectService(_ context.Context, s *Session, in input, out *outbox) outcome {
	svc, ok := e.catalog.ServiceByID(in.normalized)
	if !ok {
		out.add(msgInvalidService)
		return keep
	}
	s.Draft.Service = &svc
	e.enterConfirmation(s, out)
	return keep
}

func (e *Engine) confirm(ctx context.Context, s *Session, in input, out *outbox) outcome {
	switch in.normalized {
	case "si", "sí":
		if err := e.booker.Commit(ctx, s.Draft); err != nil {
			out.logger.Warn("booking not saved, waiting for retry", zap.Error(err))
			out.add(msgCommitFailed)
			return keep
		}
		out.add(msgBooked)
		return finish
	case "modificar":
		s.Step = StepModifyMenu
		out.add(modifyPrompt())
		return keep
	case "cancelar":
		out.add(msgBookingDropped)
		return finish
	default:
		// Unmatched input at confirmation gets no reply.
		return keep
	}
}

func (e *Engine) modify(ctx context.Context, s *Session, in input, out *outbox) outcome {
	c := in.choose(5)
	if !c.valid {
		out.add(msgInvalidOption)
		out.add(modifyPrompt())
		return keep
	}

	switch c.index {
	case 0:
		e.enterStaffSelection(s, out)
	case 1:
		e.enterDateSelection(s, out)
	case 2:
		e.enterTimeSelection(ctx, s, s.Draft.Date, out)
	case 3:
		s.Step = StepServiceSelection
		out.add(servicePrompt(e.catalog.Services))
	case 4:
		return restart
	}
	return keep
}

func (e *Engine) searchBookings(ctx context.Context, s *Session, in input, out *outbox) outcome {
	bookings, err := e.booker.FindByName(ctx, in.raw)
	if err != nil {
		out.logger.Warn("booking search failed, reporting no results", zap.Error(err))
		bookings = nil
	}
	if len(bookings) == 0 {
		out.add(msgNoBookings)
		return finish
	}

	s.PendingCancellations = bookings
	s.Step = StepCancelSelect
	out.add(cancelSelectPrompt(bookings))
	return keep
}

func (e *Engine) selectCancellation(ctx context.Context, s *Session, in input, out *outbox) outcome {
	c := in.choose(len(s.PendingCancellations))
	if !c.valid {
		out.add(msgInvalidOption)
		return keep
	}

	if err := e.booker.Cancel(ctx, s.PendingCancellations[c.index]); err != nil {
		out.add(msgCancelFailed)
		return finish
	}
	out.add(msgCancelled)
	return finish
}

func (e *Engine) enterStaffSelection(s *Session, out *outbox) {
	s.Step = StepStaffSelection
	out.add(staffPrompt(e.catalog.Staff))
}

func (e *Engine) enterDateSelection(s *Session, out *outbox) {
	s.CandidateDates = e.slots.UpcomingDates()
	s.Step = StepDateSelection
	out.add(datePrompt(s.CandidateDates))
}

// enterTimeSelection offers the free slots of date. With none free the customer is
// told so and the step does not change.
func (e *Engine) enterTimeSelection(ctx context.Context, s *Session, date string, out *outbox) {
	times := e.slots.AvailableTimes(ctx, s.Draft.StaffMember, date)
	if len(times) == 0 {
		out.add(msgNoTimes)
		return
	}

	s.Draft.Date = date
	s.CandidateTimes = times
	s.Step = StepTimeSelection
	out.add(timePrompt(times))
}

func (e *Engine) enterConfirmation(s *Session, out *outbox) {
	s.Step = StepConfirmation
	out.add(confirmationPrompt(s.Draft))
}
