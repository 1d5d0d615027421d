package orders

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/tablepos-backend/api/validators"
	internalorders "github.com/angelmondragon/tablepos-backend/internal/orders"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/angelmondragon/tablepos-backend/pkg/types"
)

const maxNoteLen = 280

type lineRequest struct {
	ProductID   uuid.UUID `json:"product_id" validate:"required"`
	Quantity    int       `json:"quantity" validate:"gt=0"`
	Note        *string   `json:"note,omitempty"`
	Destination *string   `json:"destination,omitempty"`
}

type createOrderRequest struct {
	CashSessionID uuid.UUID     `json:"cash_session_id" validate:"required"`
	OrderType     *string       `json:"order_type,omitempty"`
	TableNumber   *int          `json:"table_number,omitempty"`
	PaymentMethod *string       `json:"payment_method,omitempty"`
	PaymentStatus *string       `json:"payment_status,omitempty"`
	Items         []lineRequest `json:"items" validate:"required,min=1,dive"`
}

// A present items array replaces every line of the order.
type updateOrderRequest struct {
	OrderType     *string             `json:"order_type,omitempty"`
	TableNumber   types.Nullable[int] `json:"table_number"`
	PaymentMethod *string             `json:"payment_method,omitempty"`
	Items         []lineRequest       `json:"items,omitempty" validate:"omitempty,dive"`
}

type itemsRequest struct {
	Items []lineRequest `json:"items" validate:"required,min=1,dive"`
}

type editItemRequest struct {
	Quantity    *int                   `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	Note        types.Nullable[string] `json:"note"`
	Destination *string                `json:"destination,omitempty"`
}

type payRequest struct {
	PaymentMethod *string `json:"payment_method,omitempty"`
}

func (r createOrderRequest) toInput() (internalorders.CreateInput, error) {
	input := internalorders.CreateInput{
		CashSessionID: r.CashSessionID,
		TableNumber:   r.TableNumber,
	}
	var err error
	if input.Type, err = validators.ParseEnumField(r.OrderType, "order_type", enums.ParseOrderType); err != nil {
		return input, err
	}
	if input.PaymentMethod, err = validators.ParseEnumField(r.PaymentMethod, "payment_method", enums.ParsePaymentMethod); err != nil {
		return input, err
	}
	if input.PaymentStatus, err = validators.ParseEnumField(r.PaymentStatus, "payment_status", enums.ParsePaymentStatus); err != nil {
		return input, err
	}
	if input.Lines, err = toLineInputs(r.Items); err != nil {
		return input, err
	}
	return input, nil
}

func (r updateOrderRequest) toPatch() (internalorders.HeaderPatch, error) {
	patch := internalorders.HeaderPatch{TableNumber: r.TableNumber}
	var err error
	if patch.Type, err = validators.ParseEnumField(r.OrderType, "order_type", enums.ParseOrderType); err != nil {
		return patch, err
	}
	if patch.PaymentMethod, err = validators.ParseEnumField(r.PaymentMethod, "payment_method", enums.ParsePaymentMethod); err != nil {
		return patch, err
	}
	if r.Items != nil {
		if patch.Lines, err = toLineInputs(r.Items); err != nil {
			return patch, err
		}
	}
	return patch, nil
}

func (r editItemRequest) toInput() (internalorders.EditItemInput, error) {
	input := internalorders.EditItemInput{Quantity: r.Quantity, Note: r.Note}
	if r.Note.Value != nil {
		input.Note.Value = validators.SanitizeOptional(r.Note.Value, maxNoteLen)
	}
	destination, err := validators.ParseEnumField(r.Destination, "destination", enums.ParseLineDestination)
	if err != nil {
		return input, err
	}
	input.Destination = destination
	return input, nil
}

func toLineInputs(items []lineRequest) ([]internalorders.LineInput, error) {
	out := make([]internalorders.LineInput, 0, len(items))
	for _, item := range items {
		destination, err := validators.ParseEnumField(item.Destination, "destination", enums.ParseLineDestination)
		if err != nil {
			return nil, err
		}
		out = append(out, internalorders.LineInput{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			Note:        validators.SanitizeOptional(item.Note, maxNoteLen),
			Destination: destination,
		})
	}
	return out, nil
}
