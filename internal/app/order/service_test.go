package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/UOS2025SWE/MrDaebak-sub000/internal/adapter/logger"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/domain"
	"github.com/UOS2025SWE/MrDaebak-sub000/internal/interfaces"
)

// memOrderRepo reproduces the storage transaction semantics in memory: one
// mutex stands in for the row locks, so every method is atomic with respect
// to the others.
type memOrderRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*domain.Order
	stock     map[string]int
	loyalty   map[uuid.UUID]int
	history   map[uuid.UUID][]*domain.StatusLog
	resSeq    int
	numberSeq int
}

func newMemOrderRepo(stock map[string]int) *memOrderRepo {
	return &memOrderRepo{
		orders:  make(map[uuid.UUID]*domain.Order),
		stock:   stock,
		loyalty: make(map[uuid.UUID]int),
		history: make(map[uuid.UUID][]*domain.StatusLog),
	}
}

// reservedByOthers sums unconsumed reservations for a code across every order
// except the excluded one.
func (m *memOrderRepo) reservedByOthers(exclude uuid.UUID, code string) int {
	total := 0
	for id, ord := range m.orders {
		if id == exclude {
			continue
		}
		for _, res := range ord.Reservations {
			if !res.Consumed && res.IngredientCode == code {
				total += res.Quantity
			}
		}
	}
	return total
}

func (m *memOrderRepo) appendLog(orderID uuid.UUID, status domain.Status, changedBy string) {
	m.history[orderID] = append(m.history[orderID], &domain.StatusLog{
		ID:        len(m.history[orderID]) + 1,
		OrderID:   orderID.String(),
		Status:    status,
		ChangedBy: changedBy,
		ChangedAt: time.Now().UTC(),
	})
}

func (m *memOrderRepo) Create(ctx context.Context, ord *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var shortfalls []domain.StockShortfall
	for _, res := range ord.Reservations {
		available := m.stock[res.IngredientCode] - m.reservedByOthers(ord.ID, res.IngredientCode)
		if available < res.Quantity {
			shortfalls = append(shortfalls, domain.StockShortfall{
				IngredientCode: res.IngredientCode,
				Required:       res.Quantity,
				Available:      available,
			})
		}
	}
	if len(shortfalls) > 0 {
		return &domain.InsufficientStockError{Shortfalls: shortfalls}
	}

	for i := range ord.Reservations {
		m.resSeq++
		ord.Reservations[i].ID = m.resSeq
	}
	m.orders[ord.ID] = ord
	m.appendLog(ord.ID, ord.Status, "system")
	return nil
}

func (m *memOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ord, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	copied := *ord
	return &copied, nil
}

func (m *memOrderRepo) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ord := range m.orders {
		if ord.Number == number {
			copied := *ord
			return &copied, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (m *memOrderRepo) NextOrderNumber(ctx context.Context, year int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.numberSeq++
	return fmt.Sprintf("ORD-%d-%06d", year, m.numberSeq), nil
}

func (m *memOrderRepo) StatusHistory(ctx context.Context, orderID uuid.UUID) ([]*domain.StatusLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history[orderID], nil
}

func (m *memOrderRepo) cas(orderID uuid.UUID, from, to domain.Status) (*domain.Order, error) {
	ord, ok := m.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if ord.Status != from {
		if ord.Status == to || ord.Status.Terminal() {
			return nil, &domain.ConflictError{OrderID: orderID, Current: ord.Status}
		}
		return nil, &domain.StateTransitionError{From: ord.Status, To: to}
	}
	ord.Status = to
	return ord, nil
}

func (m *memOrderRepo) TransitionStatus(ctx context.Context, orderID uuid.UUID, from, to domain.Status, changedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.cas(orderID, from, to); err != nil {
		return err
	}
	m.appendLog(orderID, to, changedBy)
	return nil
}

func (m *memOrderRepo) BeginPreparing(ctx context.Context, orderID uuid.UUID, changedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ord, err := m.cas(orderID, domain.StatusReceived, domain.StatusPreparing)
	if err != nil {
		return err
	}
	if ord.CustomerID != nil {
		m.loyalty[*ord.CustomerID]++
	}
	m.appendLog(orderID, domain.StatusPreparing, changedBy)
	return nil
}

func (m *memOrderRepo) CompleteWithConsumption(ctx context.Context, orderID uuid.UUID, changedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ord, ok := m.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if ord.Status == domain.StatusCompleted {
		return nil
	}
	if ord.Status != domain.StatusDelivering {
		return &domain.StateTransitionError{From: ord.Status, To: domain.StatusCompleted}
	}

	var shortfalls []domain.StockShortfall
	for _, res := range ord.Reservations {
		if res.Consumed {
			continue
		}
		available := m.stock[res.IngredientCode] - m.reservedByOthers(orderID, res.IngredientCode)
		if available < res.Quantity {
			shortfalls = append(shortfalls, domain.StockShortfall{
				IngredientCode: res.IngredientCode,
				Required:       res.Quantity,
				Available:      available,
			})
		}
	}
	if len(shortfalls) > 0 {
		return &domain.InsufficientStockError{Shortfalls: shortfalls}
	}

	for i := range ord.Reservations {
		if ord.Reservations[i].Consumed {
			continue
		}
		m.stock[ord.Reservations[i].IngredientCode] -= ord.Reservations[i].Quantity
		ord.Reservations[i].Consumed = true
	}
	ord.Status = domain.StatusCompleted
	ord.InventoryConsumed = true
	m.appendLog(orderID, domain.StatusCompleted, changedBy)
	return nil
}

func (m *memOrderRepo) CancelWithRelease(ctx context.Context, orderID uuid.UUID, from, to domain.Status, payment domain.PaymentStatus, changedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ord, err := m.cas(orderID, from, to)
	if err != nil {
		return err
	}
	kept := ord.Reservations[:0]
	for _, res := range ord.Reservations {
		if res.Consumed {
			kept = append(kept, res)
		}
	}
	ord.Reservations = kept
	ord.PaymentStatus = payment
	m.appendLog(orderID, to, changedBy)
	return nil
}

func (m *memOrderRepo) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ord, ok := m.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	ord.PaymentStatus = status
	return nil
}

func (m *memOrderRepo) stockOf(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[code]
}

func (m *memOrderRepo) setStock(code string, qty int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[code] = qty
}

func (m *memOrderRepo) loyaltyCount(customerID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loyalty[customerID]
}

type stubPricing struct {
	price decimal.Decimal
	draw  []domain.IngredientRequirement
}

func (s *stubPricing) Calculate(ctx context.Context, req interfaces.PricingRequest) (*domain.PriceBreakdown, []domain.IngredientRequirement, error) {
	draw := make([]domain.IngredientRequirement, len(s.draw))
	copy(draw, s.draw)
	return &domain.PriceBreakdown{
		MenuCode:   req.MenuCode,
		StyleCode:  req.StyleCode,
		Quantity:   req.Quantity,
		UnitPrice:  s.price,
		BaseTotal:  s.price,
		Subtotal:   s.price,
		FinalPrice: s.price,
	}, draw, nil
}

type stubPayment struct {
	mu      sync.Mutex
	decline bool
	charges int
}

func (s *stubPayment) Charge(ctx context.Context, orderNumber string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charges++
	if s.decline {
		return errors.New("card declined")
	}
	return nil
}

type stubPublisher struct {
	mu            sync.Mutex
	created       []interfaces.OrderCreatedMessage
	statusUpdates []interfaces.StatusUpdateMessage
}

func (s *stubPublisher) PublishOrderCreated(ctx context.Context, msg interfaces.OrderCreatedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, msg)
	return nil
}

func (s *stubPublisher) PublishStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusUpdates = append(s.statusUpdates, msg)
	return nil
}

type testEnv struct {
	svc       *Service
	repo      *memOrderRepo
	payment   *stubPayment
	publisher *stubPublisher
}

func newTestEnv(stock map[string]int, draw []domain.IngredientRequirement) *testEnv {
	repo := newMemOrderRepo(stock)
	payment := &stubPayment{}
	publisher := &stubPublisher{}
	pricing := &stubPricing{price: decimal.NewFromInt(75000), draw: draw}
	svc := NewService(repo, pricing, payment, publisher, logger.New("order-test", false), time.Hour)
	return &testEnv{svc: svc, repo: repo, payment: payment, publisher: publisher}
}

func createCmd(customerID *uuid.UUID) interfaces.CreateOrderCommand {
	return interfaces.CreateOrderCommand{
		StoreID:         "gangnam-01",
		MenuCode:        "valentine",
		StyleCode:       "simple",
		Quantity:        1,
		CustomerID:      customerID,
		DeliveryAddress: "12 Teheran-ro, Gangnam-gu",
	}
}

func TestCreateOrderReservesStock(t *testing.T) {
	env := newTestEnv(map[string]int{"steak": 4, "wine": 4}, []domain.IngredientRequirement{
		{IngredientCode: "steak", Quantity: 2},
		{IngredientCode: "wine", Quantity: 1},
	})

	res, err := env.svc.CreateOrder(context.Background(), createCmd(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != domain.StatusReceived {
		t.Errorf("status = %s, want %s", res.Status, domain.StatusReceived)
	}
	if res.PaymentStatus != domain.PaymentPaid {
		t.Errorf("payment status = %s, want %s", res.PaymentStatus, domain.PaymentPaid)
	}
	if res.Number == "" {
		t.Error("order number not assigned")
	}

	// Reservation does not debit the ledger.
	if got := env.repo.stockOf("steak"); got != 4 {
		t.Errorf("steak stock = %d, want 4 (reservation must not debit)", got)
	}
	if len(env.publisher.created) != 1 {
		t.Errorf("published %d created events, want 1", len(env.publisher.created))
	}
}

func TestCreateOrderExactStockBoundary(t *testing.T) {
	env := newTestEnv(map[string]int{"steak": 4}, []domain.IngredientRequirement{
		{IngredientCode: "steak", Quantity: 4},
	})

	if _, err := env.svc.CreateOrder(context.Background(), createCmd(nil)); err != nil {
		t.Fatalf("exact-stock order should succeed: %v", err)
	}

	// The whole stock is now reserved; one more unit cannot be promised.
	_, err := env.svc.CreateOrder(context.Background(), createCmd(nil))
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if len(stockErr.Shortfalls) != 1 || stockErr.Shortfalls[0].IngredientCode != "steak" {
		t.Errorf("shortfalls = %+v, want one entry for steak", stockErr.Shortfalls)
	}
	if stockErr.Shortfalls[0].Available != 0 {
		t.Errorf("available = %d, want 0", stockErr.Shortfalls[0].Available)
	}
}

func TestCreateOrderNoOverselling(t *testing.T) {
	env := newTestEnv(map[string]int{"steak": 5}, []domain.IngredientRequirement{
		{IngredientCode: "steak", Quantity: 2},
	})

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.CreateOrder(context.Background(), createCmd(nil))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var stockErr *domain.InsufficientStockError
		if !errors.As(err, &stockErr) {
			t.Errorf("unexpected error kind: %v", err)
		}
	}

	// Five units at two per order admits exactly two orders.
	if succeeded != 2 {
		t.Errorf("%d orders succeeded, want 2", succeeded)
	}
	if got := env.repo.stockOf("steak"); got != 5 {
		t.Errorf("steak stock = %d, want 5 untouched", got)
	}
}

func TestConcurrentCreationsGetDistinctNumbers(t *testing.T) {
	env := newTestEnv(map[string]int{"steak": 100}, []domain.IngredientRequirement{
		{IngredientCode: "steak", Quantity: 1},
	})

	const attempts = 8
	var wg sync.WaitGroup
	numbers := make(chan string, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.svc.CreateOrder(context.Background(), createCmd(nil))
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			numbers <- res.Number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool, attempts)
	for number := range numbers {
		if seen[number] {
			t.Errorf("number %s allocated twice", number)
		}
		seen[number] = true
	}
	if len(seen) != attempts {
		t.Errorf("%d distinct numbers, want %d", len(seen), attempts)
	}
}

func advanceToDelivering(t *testing.T, env *testEnv, orderID uuid.UUID) {
	t.Helper()
	for _, status := range []domain.Status{domain.StatusPreparing, domain.StatusDelivering} {
		_, err := env.svc.TransitionStatus(context.Background(), interfaces.TransitionCommand{
			OrderID: orderID, NewStatus: status, Role: domain.RoleStaff, Actor: "staff-1",
		})
		if err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}
}

func TestCompletionConsumesExactlyOnce(t *testing.T) {
	env := newTestEnv(map[string]int{"steak": 10}, []domain.IngredientRequirement{
		{IngredientCode: "steak", Quantity: 3},
	})

	res, err := env.svc.CreateOrder(context.Background(), createCmd(nil))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	advanceToDelivering(t, env, res.ID)

	complete := func() error {
		_, err := env.svc.TransitionStatus(context.Background(), interfaces.TransitionCommand{
			OrderID: res.ID, NewStatus: domain.StatusCompleted, Role: domain.RoleStaff, Actor: "staff-1",
		})
		return err
	}

	if err := complete(); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	if got := env.repo.stockOf("steak"); got != 7 {
		t.Errorf("steak stock = %d, want 7 after consumption", got)
	}

	// A duplicate completion signal is a no-op, not an error.
	if err := complete(); err != nil {
		t.Fatalf("duplicate completion: %v", err)
	}
	if got := env.repo.stockOf("steak"); got != 7 {
		t.Errorf("steak stock = %d after duplicate completion, want 7", got)
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := complete(); err != nil {
				t.Errorf("concurrent completion: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := env.repo.stockOf("steak"); got != 7 {
		t.Errorf("steak stock = %d after concurrent completions, want 7", got)
	}
}

func TestCompletionRevalidatesStock(t *testing.T) {
	env := newTestEnv(map[string]int{"steak": 3}, []domain.IngredientRequirement{
		{IngredientCode: "steak", Quantity: 3},
	})

	res, err := env.svc.CreateOrder(context.Background(), createCmd(nil))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	advanceToDelivering(t, env, res.ID)

	// Stock lost between reservation and delivery. The completion must be
	// rejected in full, leaving order and ledger untouched.
	env.repo.setStock("steak", 2)

	_, err = env.svc.TransitionStatus(context.Background(), interfaces.TransitionCommand{
		OrderID: res.ID, NewStatus: domain.StatusCompleted, Role: domain.RoleStaff, Actor: "staff-1",
	})
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	after, err := env.repo.FindByID(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if after.Status != domain.StatusDelivering {
		t.Errorf("status = %s, want still %s", after.Status, domain.StatusDelivering)
	}
	if after.InventoryConsumed {
		t.Error("order flagged consumed after rejected completion")
	}
	if got := env.repo.stockOf("steak"); got != 2 {
		t.Errorf("steak stock = %d, want 2 untouched", got)
	}
}

func TestCustomerCancelReleasesReservations(t *testing.T) {
	customerID := uuid.New()
	env := newTestEnv(map[string]int{"steak": 2}, []domain.IngredientRequirement{
		{IngredientCode: "steak", Quantity: 2},
	})

	res, err := env.svc.CreateOrder(context.Background(), createCmd(&customerID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	cancelled, err := env.svc.CancelOrder(context.Background(), res.ID, customerID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.StatusCancelled {
		t.Errorf("status = %s, want %s", cancelled.Status, domain.StatusCancelled)
	}
	if cancelled.PaymentStatus != domain.PaymentRefunded {
		t.Errorf("payment status = %s, want %s", cancelled.PaymentStatus, domain.PaymentRefunded)
	}
	if got := env.repo.stockOf("steak"); got != 2 {
		t.Errorf("steak stock = %d, want 2 (ledger never touched)", got)
	}

	// The released stock is immediately reservable again.
	if _, err := env.svc.CreateOrder(context.Background(), createCmd(nil)); err != nil {
		t.Errorf("stock not released: %v", err)
	}
}

func TestCancelRequiresOwnership(t *testing.T) {
	owner := uuid.New()
	env := newTestEnv(map[string]int{"steak": 2}, []domain.IngredientRequirement{
		{IngredientCode: "steak", Quantity: 1},
	})

	res, err := env.svc.CreateOrder(context.Background(), createCmd(&owner))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := env.svc.CancelOrder(context.Background(), res.ID, uuid.New()); !errors.Is(err, domain.ErrNotOrderOwner) {
		t.Errorf("expected ErrNotOrderOwner, got %v", err)
	}
}

func TestCustomerCannotCancelAfterPreparing(t *testing.T) {
	customerID := uuid.New()
	env := newTestEnv(map[string]int{"steak": 2}, []domain.IngredientRequirement{
		{IngredientCode: "steak", Quantity: 1},
	})

	res, err := env.svc.CreateOrder(context.Background(), createCmd(&customerID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.svc.TransitionStatus(context.Background(), interfaces.TransitionCommand{
		OrderID: res.ID, NewStatus: domain.StatusPreparing, Role: domain.RoleStaff, Actor: "staff-1",
	}); err != nil {
		t.Fatalf("begin preparing: %v", err)
	}

	_, err = env.svc.CancelOrder(context.Background(), res.ID, customerID)
	var stateErr *domain.StateTransitionError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateTransitionError, got %v", err)
	}
}

func TestStaffRoleRequiredForProgression(t *testing.T) {
	env := newTestEnv(map[string]int{"steak": 2}, []domain.IngredientRequirement{
		{IngredientCode: "steak", Quantity: 1},
	})

	res, err := env.svc.CreateOrder(context.Background(), createCmd(nil))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = env.svc.TransitionStatus(context.Background(), interfaces.TransitionCommand{
		OrderID: res.ID, NewStatus: domain.StatusPreparing, Role: domain.RoleCustomer, Actor: "cust",
	})
	var stateErr *domain.StateTransitionError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateTransitionError for customer role, got %v", err)
	}
}

func TestLoyaltyIncrementsOnceUnderRetry(t *testing.T) {
	customerID := uuid.New()
	env := newTestEnv(map[string]int{"steak": 2}, []domain.IngredientRequirement{
		{IngredientCode: "steak", Quantity: 1},
	})

	res, err := env.svc.CreateOrder(context.Background(), createCmd(&customerID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	prepare := func() error {
		_, err := env.svc.TransitionStatus(context.Background(), interfaces.TransitionCommand{
			OrderID: res.ID, NewStatus: domain.StatusPreparing, Role: domain.RoleStaff, Actor: "staff-1",
		})
		return err
	}

	var wg sync.WaitGroup
	outcomes := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes <- prepare()
		}()
	}
	wg.Wait()
	close(outcomes)

	succeeded := 0
	for err := range outcomes {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Errorf("%d transitions succeeded, want 1", succeeded)
	}
	if got := env.repo.loyaltyCount(customerID); got != 1 {
		t.Errorf("loyalty count = %d, want exactly 1", got)
	}
}

func TestPaymentFailureReleasesReservations(t *testing.T) {
	env := newTestEnv(map[string]int{"steak": 2}, []domain.IngredientRequirement{
		{IngredientCode: "steak", Quantity: 2},
	})
	env.payment.decline = true

	// A declined payment is an order outcome, not an error.
	res, err := env.svc.CreateOrder(context.Background(), createCmd(nil))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Status != domain.StatusPaymentFailed {
		t.Errorf("status = %s, want %s", res.Status, domain.StatusPaymentFailed)
	}
	if res.PaymentStatus != domain.PaymentFailed {
		t.Errorf("payment status = %s, want %s", res.PaymentStatus, domain.PaymentFailed)
	}
	if got := env.repo.stockOf("steak"); got != 2 {
		t.Errorf("steak stock = %d, want 2", got)
	}

	// Reservations are gone, so the stock is available again.
	env.payment.decline = false
	if _, err := env.svc.CreateOrder(context.Background(), createCmd(nil)); err != nil {
		t.Errorf("stock not released after payment failure: %v", err)
	}
}

func TestStatusHistoryRecordsEveryTransition(t *testing.T) {
	env := newTestEnv(map[string]int{"steak": 2}, []domain.IngredientRequirement{
		{IngredientCode: "steak", Quantity: 1},
	})

	res, err := env.svc.CreateOrder(context.Background(), createCmd(nil))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	advanceToDelivering(t, env, res.ID)
	if _, err := env.svc.TransitionStatus(context.Background(), interfaces.TransitionCommand{
		OrderID: res.ID, NewStatus: domain.StatusCompleted, Role: domain.RoleStaff, Actor: "staff-1",
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	history, err := env.svc.GetStatusHistory(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	want := []domain.Status{domain.StatusReceived, domain.StatusPreparing, domain.StatusDelivering, domain.StatusCompleted}
	if len(history) != len(want) {
		t.Fatalf("history has %d entries, want %d", len(history), len(want))
	}
	for i, status := range want {
		if history[i].Status != status {
			t.Errorf("history[%d] = %s, want %s", i, history[i].Status, status)
		}
	}

	if got := len(env.publisher.statusUpdates); got != 3 {
		t.Errorf("published %d status updates, want 3", got)
	}
}

func TestGetOrderByNumber(t *testing.T) {
	env := newTestEnv(map[string]int{"steak": 2}, []domain.IngredientRequirement{
		{IngredientCode: "steak", Quantity: 1},
	})

	created, err := env.svc.CreateOrder(context.Background(), createCmd(nil))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := env.svc.GetOrderByNumber(context.Background(), created.Number)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("found order %s, want %s", found.ID, created.ID)
	}

	if _, err := env.svc.GetOrderByNumber(context.Background(), "ORD-2026-999999"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestBreakdownFrozenOnOrder(t *testing.T) {
	env := newTestEnv(map[string]int{"steak": 2}, []domain.IngredientRequirement{
		{IngredientCode: "steak", Quantity: 1},
	})

	res, err := env.svc.CreateOrder(context.Background(), createCmd(nil))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	breakdown, err := env.svc.GetPricingBreakdown(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if !breakdown.FinalPrice.Equal(res.TotalPrice) {
		t.Errorf("breakdown final %s != order total %s", breakdown.FinalPrice, res.TotalPrice)
	}
	if breakdown.MenuCode != "valentine" || breakdown.StyleCode != "simple" {
		t.Errorf("breakdown identifies %s/%s", breakdown.MenuCode, breakdown.StyleCode)
	}
}
