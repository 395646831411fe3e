package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"go-retail-ws/internal/model"
	"go-retail-ws/internal/repository"
	"go-retail-ws/pkg/query"
	"go-retail-ws/pkg/validator"
)

type CreateCustomerRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"max=32"`
	Address string `json:"address" validate:"max=1000"`
}

type CustomerService interface {
	CreateCustomer(ctx context.Context, req *CreateCustomerRequest, actor Actor) (*model.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	ListCustomers(ctx context.Context, search string, page query.Page) ([]model.Customer, int64, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
	hooks        Hooks
}

func NewCustomerService(cRepo repository.CustomerRepository, hooks Hooks) CustomerService {
	return &customerService{customerRepo: cRepo, hooks: hooks}
}

func (s *customerService) CreateCustomer(ctx context.Context, req *CreateCustomerRequest, actor Actor) (customer *model.Customer, err error) {
	defer s.hooks.track(ctx, "customer.create")(&err)

	if err = validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	customer = &model.Customer{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
		Address:   req.Address,
		Auditable: model.Auditable{CreatedBy: actor.ID, UpdatedBy: actor.ID},
	}
	if err = s.customerRepo.Create(ctx, customer); err != nil {
		return nil, internalErr(err, "create customer")
	}
	return customer, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "customer")
	}
	return customer, nil
}

// ListCustomers matches search against the name and email.
func (s *customerService) ListCustomers(ctx context.Context, search string, page query.Page) ([]model.Customer, int64, error) {
	search = strings.TrimSpace(search)
	filter := query.NewFilter(repository.CustomerFilterColumns...).
		WhereAnyIf(search != "", []string{"name", "email"}, query.Like, query.Contains(search))
	customers, total, err := s.customerRepo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, internalErr(err, "list customers")
	}
	return customers, total, nil
}
