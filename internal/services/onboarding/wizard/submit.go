package wizard

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/farmstand.market/internal/platform/errors"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/domain"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/marketapi"
	"github.com/louisbranch/farmstand.market/internal/services/onboarding/storage"
)

// API is the subset of the marketplace client the wizard calls.
type API interface {
	CreateStore(ctx context.Context, in marketapi.StoreInput) (domain.Store, error)
	UpdateStore(ctx context.Context, id domain.StoreID, in marketapi.StoreInput) (domain.Store, error)
	DeleteStore(ctx context.Context, id domain.StoreID) error
	SetCategories(ctx context.Context, id domain.StoreID, categoryIDs []int64) ([]domain.Category, error)
	CreateAddress(ctx context.Context, id domain.StoreID, address domain.Address) (domain.Address, error)
	UpdateAddress(ctx context.Context, id domain.StoreID, address domain.Address) (domain.Address, error)
	DeleteAddress(ctx context.Context, id domain.StoreID, addressID int64) error
	SetOpenHours(ctx context.Context, id domain.StoreID, hours domain.StoreHours) error
	SetPaymentMethods(ctx context.Context, id domain.StoreID, methods []string) error
	UploadImage(ctx context.Context, id domain.StoreID, kind domain.ImageKind, file domain.FileRef) (domain.Image, error)
	DeleteImage(ctx context.Context, id domain.StoreID, imageID int64) error
	SubmitForReview(ctx context.Context, id domain.StoreID) (domain.StoreApplication, error)
}

// Ledger action keys.
const (
	keyStore           = "store"
	keyBusinessAddress = "address.business"
	keyBillingAddress  = "address.billing"
	keyPickupAddress   = "address.pickup"
	keyLogo            = "image.logo"
	keyBanner          = "image.banner"
	keySubmission      = "submission"
)

// submission builds the saga actions for one step. Actions may update the
// session's form (the store id, uploaded image ids); the caller persists it
// whether or not the saga succeeds.
type submission struct {
	api     API
	session *storage.Session
}

func (s submission) actions(step domain.Step) ([]action, error) {
	if step != domain.StepStoreBasics && s.session.Form.StoreID == 0 {
		return nil, apperrors.WithMetadata(apperrors.CodeWizardStepOutOfOrder,
			"store has not been created yet", map[string]string{"Step": string(domain.StepStoreBasics)})
	}
	switch step {
	case domain.StepStoreBasics:
		return s.basics(), nil
	case domain.StepLocationLogistics:
		return s.location(), nil
	case domain.StepStoreHours:
		return []action{s.call(func(ctx context.Context) error {
			return s.api.SetOpenHours(ctx, s.storeID(), s.session.Form.StoreHours)
		})}, nil
	case domain.StepPaymentMethods:
		return []action{s.call(func(ctx context.Context) error {
			return s.api.SetPaymentMethods(ctx, s.storeID(), s.session.Form.PaymentMethods)
		})}, nil
	case domain.StepStorePolicies:
		return []action{s.updateStore()}, nil
	case domain.StepBranding:
		return []action{
			s.image(keyLogo, domain.ImageLogo, &s.session.Form.Branding.Logo),
			s.image(keyBanner, domain.ImageBanner, &s.session.Form.Branding.Banner),
		}, nil
	case domain.StepReview:
		return []action{s.submitForReview()}, nil
	default:
		return nil, apperrors.WithMetadata(apperrors.CodeWizardStepInvalid,
			fmt.Sprintf("unknown wizard step %q", step), map[string]string{"Step": string(step)})
	}
}

func (s submission) storeID() domain.StoreID {
	return s.session.Form.StoreID
}

func (s submission) call(fn func(ctx context.Context) error) action {
	return action{Do: func(ctx context.Context, _ *storage.LedgerEntry) (outcome, error) {
		return outcome{}, fn(ctx)
	}}
}

// storeInput renders everything the form knows about the store. Updates
// always send the full picture so a later step never blanks an earlier one.
func storeInput(form domain.FormState) marketapi.StoreInput {
	basics := form.StoreBasics
	in := marketapi.StoreInput{
		Name:               strings.TrimSpace(basics.StoreName),
		Description:        strings.TrimSpace(basics.Description),
		Email:              strings.TrimSpace(basics.Email),
		Phone:              domain.DigitsOnly(basics.Phone),
		Website:            strings.TrimSpace(basics.Website),
		ReturnPolicy:       strings.TrimSpace(form.StorePolicies.ReturnPolicy),
		CancellationPolicy: strings.TrimSpace(form.StorePolicies.CancellationPolicy),
		SellingMethods:     form.LocationLogistics.SellingMethods,
	}
	if form.LocationLogistics.HasSellingMethod(domain.SellingLocalDelivery) {
		in.DeliveryRadiusMi = form.LocationLogistics.DeliveryRadiusMi
	}
	return in
}

func (s submission) basics() []action {
	createOrUpdate := action{
		Key:  keyStore,
		Kind: storage.ResourceStore,
		Do: func(ctx context.Context, prior *storage.LedgerEntry) (outcome, error) {
			in := storeInput(s.session.Form)
			if prior != nil {
				store, err := s.api.UpdateStore(ctx, prior.StoreID, in)
				if err != nil {
					return outcome{}, err
				}
				s.session.Form.StoreID = store.ID
				if store.ID == 0 {
					s.session.Form.StoreID = prior.StoreID
				}
				return outcome{StoreID: s.session.Form.StoreID, ResourceID: int64(s.session.Form.StoreID)}, nil
			}
			store, err := s.api.CreateStore(ctx, in)
			if err != nil {
				return outcome{}, err
			}
			if store.ID == 0 {
				return outcome{}, fmt.Errorf("create store returned no id")
			}
			s.session.Form.StoreID = store.ID
			return outcome{StoreID: store.ID, ResourceID: int64(store.ID)}, nil
		},
	}
	categories := s.call(func(ctx context.Context) error {
		_, err := s.api.SetCategories(ctx, s.storeID(), s.session.Form.StoreBasics.CategoryIDs)
		return err
	})
	return []action{createOrUpdate, categories}
}

func (s submission) location() []action {
	location := s.session.Form.LocationLogistics
	actions := []action{s.address(keyBusinessAddress, location.BusinessAddress.ToAddress(domain.AddressBusiness))}

	if location.BillingSameAsBusiness {
		actions = append(actions, s.forgetAddress(keyBillingAddress))
	} else {
		actions = append(actions, s.address(keyBillingAddress, location.BillingAddress.ToAddress(domain.AddressBilling)))
	}

	if location.HasSellingMethod(domain.SellingPickup) {
		input := location.PickupAddress
		if location.PickupSameAsBusiness {
			input = location.BusinessAddress
		}
		pickup := input.ToAddress(domain.AddressPickup)
		pickup.PickupInstructions = strings.TrimSpace(location.PickupInstructions)
		actions = append(actions, s.address(keyPickupAddress, pickup))
	} else {
		actions = append(actions, s.forgetAddress(keyPickupAddress))
	}

	if location.HasSellingMethod(domain.SellingLocalDelivery) {
		actions = append(actions, s.updateStore())
	}
	return actions
}

// address creates the address on the first attempt and updates the recorded
// one on retries.
func (s submission) address(key string, address domain.Address) action {
	return action{
		Key:  key,
		Kind: storage.ResourceAddress,
		Do: func(ctx context.Context, prior *storage.LedgerEntry) (outcome, error) {
			storeID := s.storeID()
			if prior != nil && prior.StoreID == storeID {
				address.ID = prior.ResourceID
				if _, err := s.api.UpdateAddress(ctx, storeID, address); err != nil {
					return outcome{}, err
				}
				return outcome{StoreID: storeID, ResourceID: prior.ResourceID}, nil
			}
			created, err := s.api.CreateAddress(ctx, storeID, address)
			if err != nil {
				return outcome{}, err
			}
			if created.ID == 0 {
				return outcome{}, fmt.Errorf("create %s returned no id", key)
			}
			return outcome{StoreID: storeID, ResourceID: created.ID}, nil
		},
	}
}

// forgetAddress deletes an address recorded by an earlier submission that
// the form no longer needs.
func (s submission) forgetAddress(key string) action {
	return action{
		Key:  key,
		Kind: storage.ResourceAddress,
		Do: func(ctx context.Context, prior *storage.LedgerEntry) (outcome, error) {
			if prior == nil {
				return outcome{}, nil
			}
			if err := s.api.DeleteAddress(ctx, prior.StoreID, prior.ResourceID); err != nil {
				return outcome{}, err
			}
			return outcome{Forget: true}, nil
		},
	}
}

func (s submission) updateStore() action {
	return s.call(func(ctx context.Context) error {
		_, err := s.api.UpdateStore(ctx, s.storeID(), storeInput(s.session.Form))
		return err
	})
}

// image uploads a new file, replacing the previously uploaded one; removing
// the file from the form deletes the remote image.
func (s submission) image(key string, kind domain.ImageKind, slot **domain.FileRef) action {
	return action{
		Key:  key,
		Kind: storage.ResourceImage,
		Do: func(ctx context.Context, prior *storage.LedgerEntry) (outcome, error) {
			file := *slot
			storeID := s.storeID()
			if file == nil {
				if prior == nil {
					return outcome{}, nil
				}
				if err := s.api.DeleteImage(ctx, prior.StoreID, prior.ResourceID); err != nil {
					return outcome{}, err
				}
				return outcome{Forget: true}, nil
			}
			if file.Uploaded() {
				if prior == nil {
					return outcome{}, nil
				}
				return outcome{StoreID: prior.StoreID, ResourceID: prior.ResourceID}, nil
			}
			if prior != nil {
				if err := s.api.DeleteImage(ctx, prior.StoreID, prior.ResourceID); err != nil {
					return outcome{}, err
				}
			}
			image, err := s.api.UploadImage(ctx, storeID, kind, *file)
			if err != nil {
				if prior != nil {
					// The old image is gone; keep the ledger honest.
					return outcome{Forget: true}, err
				}
				return outcome{}, err
			}
			uploaded := *file
			uploaded.Data = nil
			uploaded.ImageID = image.ID
			*slot = &uploaded
			return outcome{StoreID: storeID, ResourceID: image.ID}, nil
		},
	}
}

func (s submission) submitForReview() action {
	return action{
		Key:  keySubmission,
		Kind: storage.ResourceApplication,
		Do: func(ctx context.Context, prior *storage.LedgerEntry) (outcome, error) {
			if prior != nil {
				return outcome{StoreID: prior.StoreID, ResourceID: prior.ResourceID}, nil
			}
			application, err := s.api.SubmitForReview(ctx, s.storeID())
			if err != nil {
				return outcome{}, err
			}
			resourceID := application.ID
			if resourceID == 0 {
				resourceID = int64(s.storeID())
			}
			return outcome{StoreID: s.storeID(), ResourceID: resourceID}, nil
		},
	}
}

// undo is the compensator used when a session is abandoned.
func undo(api API) compensator {
	return func(ctx context.Context, entry storage.LedgerEntry) error {
		switch entry.Kind {
		case storage.ResourceAddress:
			return api.DeleteAddress(ctx, entry.StoreID, entry.ResourceID)
		case storage.ResourceImage:
			return api.DeleteImage(ctx, entry.StoreID, entry.ResourceID)
		case storage.ResourceStore:
			return api.DeleteStore(ctx, entry.StoreID)
		default:
			return nil
		}
	}
}
