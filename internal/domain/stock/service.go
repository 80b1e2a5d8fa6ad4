package stock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"care-coordination/internal/domain/notifications"
	"care-coordination/internal/domain/users"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("stock item not found")
	ErrForbidden    = errors.New("not allowed")
	ErrInsufficient = errors.New("insufficient stock")
)

const (
	defaultLowStockLevel = 10

	// una alerta por ítem y por tipo cada 24h como mucho
	alertEvery = 24 * time.Hour
)

// Directory valida el rol del actor. Lo implementa el service de users.
type Directory interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

// Notifier manda el aviso in-app + push. Puede ser nil.
type Notifier interface {
	Send(ctx context.Context, userID, title, body string, typ notifications.Type, data map[string]string)
}

type Service struct {
	repo      Repository
	directory Directory
	notifier  Notifier
	now       func() time.Time
}

func NewService(repo Repository, directory Directory, notifier Notifier) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		notifier:  notifier,
		now:       time.Now,
	}
}

type AddInput struct {
	Name          string
	BatchNumber   string
	ExpiryDate    time.Time
	Quantity      int
	Price         float64
	Manufacturer  string
	Category      string
	LowStockLevel int
}

func (s *Service) Add(ctx context.Context, pharmacistID string, in AddInput) (Item, error) {
	if err := s.requirePharmacist(ctx, pharmacistID); err != nil {
		return Item{}, err
	}

	name := strings.TrimSpace(in.Name)
	batch := strings.TrimSpace(in.BatchNumber)
	if name == "" || batch == "" || in.ExpiryDate.IsZero() {
		return Item{}, ErrInvalidInput
	}
	if in.Quantity < 0 || in.Price < 0 || in.LowStockLevel < 0 {
		return Item{}, ErrInvalidInput
	}

	level := in.LowStockLevel
	if level == 0 {
		level = defaultLowStockLevel
	}

	now := s.now()
	item := Item{
		ID:            uuid.NewString(),
		PharmacistID:  pharmacistID,
		Name:          name,
		BatchNumber:   batch,
		ExpiryDate:    in.ExpiryDate,
		Quantity:      in.Quantity,
		Price:         in.Price,
		Manufacturer:  strings.TrimSpace(in.Manufacturer),
		Category:      strings.TrimSpace(in.Category),
		LowStockLevel: level,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Summary acompaña el listado completo del inventario.
type Summary struct {
	Total        int     `json:"total"`
	LowStock     int     `json:"low_stock"`
	ExpiringSoon int     `json:"expiring_soon"`
	TotalValue   float64 `json:"total_value"`
}

type Overview struct {
	Items   []Item
	Summary Summary
}

func (s *Service) List(ctx context.Context, pharmacistID string) (Overview, error) {
	items, err := s.repo.ListByPharmacist(ctx, pharmacistID)
	if err != nil {
		return Overview{}, err
	}

	now := s.now()
	sum := Summary{Total: len(items)}
	for _, item := range items {
		if item.IsLowStock() {
			sum.LowStock++
		}
		if item.IsExpiringSoon(now) {
			sum.ExpiringSoon++
		}
		sum.TotalValue += float64(item.Quantity) * item.Price
	}
	sum.TotalValue = math.Round(sum.TotalValue*100) / 100
	return Overview{Items: items, Summary: sum}, nil
}

func (s *Service) Get(ctx context.Context, pharmacistID, id string) (Item, error) {
	return s.getOwned(ctx, pharmacistID, id)
}

type UpdateInput struct {
	Name          *string
	BatchNumber   *string
	ExpiryDate    *time.Time
	Price         *float64
	Manufacturer  *string
	Category      *string
	LowStockLevel *int
}

func (s *Service) Update(ctx context.Context, pharmacistID, id string, in UpdateInput) (Item, error) {
	item, err := s.getOwned(ctx, pharmacistID, id)
	if err != nil {
		return Item{}, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Item{}, ErrInvalidInput
		}
		item.Name = strings.TrimSpace(*in.Name)
	}
	if in.BatchNumber != nil {
		item.BatchNumber = strings.TrimSpace(*in.BatchNumber)
	}
	if in.ExpiryDate != nil {
		item.ExpiryDate = *in.ExpiryDate
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return Item{}, ErrInvalidInput
		}
		item.Price = *in.Price
	}
	if in.Manufacturer != nil {
		item.Manufacturer = strings.TrimSpace(*in.Manufacturer)
	}
	if in.Category != nil {
		item.Category = strings.TrimSpace(*in.Category)
	}
	if in.LowStockLevel != nil {
		if *in.LowStockLevel < 0 {
			return Item{}, ErrInvalidInput
		}
		item.LowStockLevel = *in.LowStockLevel
	}

	item.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, item); err != nil {
		return Item{}, err
	}
	return item, nil
}

func (s *Service) Delete(ctx context.Context, pharmacistID, id string) error {
	if _, err := s.getOwned(ctx, pharmacistID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// AdjustQuantity suma o resta unidades. Restar más de lo disponible es
// ErrInsufficient; la cantidad nunca baja de cero.
func (s *Service) AdjustQuantity(ctx context.Context, pharmacistID, id, action string, qty int) (Item, error) {
	if qty <= 0 {
		return Item{}, ErrInvalidInput
	}

	item, err := s.getOwned(ctx, pharmacistID, id)
	if err != nil {
		return Item{}, err
	}

	switch action {
	case "add":
		item.Quantity += qty
	case "subtract":
		if item.Quantity < qty {
			return Item{}, ErrInsufficient
		}
		item.Quantity -= qty
	default:
		return Item{}, fmt.Errorf("%w: action must be add or subtract", ErrInvalidInput)
	}

	item.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// RecordSale descuenta una venta y, si el ítem quedó bajo el umbral,
// dispara la alerta de stock (respetando el throttle de 24h).
func (s *Service) RecordSale(ctx context.Context, pharmacistID, id string, quantitySold int) (Item, error) {
	if quantitySold <= 0 {
		return Item{}, ErrInvalidInput
	}

	item, err := s.getOwned(ctx, pharmacistID, id)
	if err != nil {
		return Item{}, err
	}
	if quantitySold > item.Quantity {
		return Item{}, ErrInsufficient
	}

	item.Quantity -= quantitySold
	item.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, item); err != nil {
		return Item{}, err
	}

	if item.IsLowStock() && s.shouldAlert(item.LastLowStockAlert) {
		s.sendLowStockAlert(ctx, &item)
		_ = s.repo.Update(ctx, item)
	}
	return item, nil
}

func (s *Service) Search(ctx context.Context, pharmacistID, query string) ([]Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.Search(ctx, pharmacistID, query)
}

func (s *Service) LowStock(ctx context.Context, pharmacistID string) ([]Item, error) {
	items, err := s.repo.ListByPharmacist(ctx, pharmacistID)
	if err != nil {
		return nil, err
	}
	out := []Item{}
	for _, item := range items {
		if item.IsLowStock() {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *Service) Expiring(ctx context.Context, pharmacistID string) ([]Item, error) {
	items, err := s.repo.ListByPharmacist(ctx, pharmacistID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := []Item{}
	for _, item := range items {
		if item.IsExpiringSoon(now) {
			out = append(out, item)
		}
	}
	return out, nil
}

// CheckAlerts recorre todo el inventario y manda las alertas de stock
// bajo y vencimiento pendientes. Cada ítem avisa como mucho una vez por
// día y por tipo; el timestamp del último aviso persiste en el ítem.
func (s *Service) CheckAlerts(ctx context.Context) error {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	for i := range items {
		item := items[i]
		dirty := false

		if item.IsLowStock() && s.shouldAlert(item.LastLowStockAlert) {
			s.sendLowStockAlert(ctx, &item)
			dirty = true
		}
		if (item.IsExpired(now) || item.IsExpiringSoon(now)) && s.shouldAlert(item.LastExpiryAlert) {
			s.sendExpiryAlert(ctx, &item, now)
			dirty = true
		}

		if dirty {
			if err := s.repo.Update(ctx, item); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) shouldAlert(last *time.Time) bool {
	return last == nil || s.now().Sub(*last) > alertEvery
}

func (s *Service) sendLowStockAlert(ctx context.Context, item *Item) {
	now := s.now()
	item.LastLowStockAlert = &now

	if s.notifier == nil {
		return
	}
	s.notifier.Send(ctx, item.PharmacistID, "Low Stock Alert",
		fmt.Sprintf("%s - Only %d units left (Batch: %s)", item.Name, item.Quantity, item.BatchNumber),
		notifications.TypeLowStockAlert, map[string]string{
			"type":     string(notifications.TypeLowStockAlert),
			"item_id":  item.ID,
			"quantity": fmt.Sprintf("%d", item.Quantity),
		})
}

func (s *Service) sendExpiryAlert(ctx context.Context, item *Item, now time.Time) {
	item.LastExpiryAlert = &now

	if s.notifier == nil {
		return
	}

	days := int(math.Ceil(item.ExpiryDate.Sub(now).Hours() / 24))
	title := "Medicine Expiring Soon"
	body := fmt.Sprintf("%s expires in %d days - %d units in stock (Batch: %s)",
		item.Name, days, item.Quantity, item.BatchNumber)
	if item.IsExpired(now) {
		title = "Medicine Expired"
		body = fmt.Sprintf("%s (Batch: %s) has expired - %d units in stock",
			item.Name, item.BatchNumber, item.Quantity)
	}

	s.notifier.Send(ctx, item.PharmacistID, title, body,
		notifications.TypeExpiryAlert, map[string]string{
			"type":    string(notifications.TypeExpiryAlert),
			"item_id": item.ID,
			"expired": fmt.Sprintf("%t", item.IsExpired(now)),
		})
}

func (s *Service) getOwned(ctx context.Context, pharmacistID, id string) (Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Item{}, ErrNotFound
	}
	if item.PharmacistID != pharmacistID {
		return Item{}, ErrForbidden
	}
	return item, nil
}

func (s *Service) requirePharmacist(ctx context.Context, userID string) error {
	u, err := s.directory.GetByID(ctx, userID)
	if err != nil || u.Role != users.RolePharmacist {
		return fmt.Errorf("%w: pharmacist role required", ErrForbidden)
	}
	return nil
}
