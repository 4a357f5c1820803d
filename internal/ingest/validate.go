package ingest

// validate.go coerces classified raw records into typed, constrained
// entities. Validation is pure: it never touches the store, and all
// constraint failures for one record are collected into a single error
// entry rather than stopping at the first.

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FieldError is one failed constraint on one field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// joinFieldErrors renders all of a record's field errors as one string.
func joinFieldErrors(errs []FieldError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// maxKeyLen bounds every natural key column.
const maxKeyLen = 50

// ValidateCustomer coerces rec into a Customer. A non-empty error slice
// means the record is rejected; the returned Customer is then meaningless.
func ValidateCustomer(rec RawRecord) (Customer, []FieldError) {
	var errs []FieldError
	c := Customer{
		CustomerID: requiredString(rec, "customer_id", maxKeyLen, &errs),
		Name:       requiredString(rec, "name", 255, &errs),
		Phone:      optionalString(rec, "phone", maxKeyLen, &errs),
		Address:    optionalString(rec, "address", 0, &errs),
	}

	c.Email = requiredString(rec, "email", 255, &errs)
	if c.Email != "" && !isValidEmail(c.Email) {
		errs = append(errs, FieldError{"email", "value is not a valid email address"})
	}

	return c, errs
}

// ValidateProduct coerces rec into a Product. A missing stock_quantity
// defaults to 0; price is required to be strictly positive.
func ValidateProduct(rec RawRecord) (Product, []FieldError) {
	var errs []FieldError
	p := Product{
		ProductID:   requiredString(rec, "product_id", maxKeyLen, &errs),
		Name:        requiredString(rec, "name", 255, &errs),
		Description: optionalString(rec, "description", 0, &errs),
		Category:    optionalString(rec, "category", 100, &errs),
	}

	var ok bool
	if p.Price, ok = numberField(rec, "price", 0, &errs); ok && p.Price <= 0 {
		errs = append(errs, FieldError{"price", "must be greater than 0"})
	}
	if p.StockQuantity, ok = intField(rec, "stock_quantity", 0, &errs); ok && p.StockQuantity < 0 {
		errs = append(errs, FieldError{"stock_quantity", "must be greater than or equal to 0"})
	}

	return p, errs
}

// ValidateOrder coerces rec into an Order. A missing status defaults to
// pending; status values are lowercased before the enum check.
func ValidateOrder(rec RawRecord) (Order, []FieldError) {
	var errs []FieldError
	o := Order{
		OrderID:    requiredString(rec, "order_id", maxKeyLen, &errs),
		CustomerID: requiredString(rec, "customer_id", maxKeyLen, &errs),
	}

	if v, ok := rec.value("order_date"); ok {
		s, strOK := toString(v)
		if !strOK {
			errs = append(errs, FieldError{"order_date", "must be a valid timestamp"})
		} else if t, parsed := parseOrderDate(s); parsed {
			o.OrderDate = t
		} else {
			errs = append(errs, FieldError{"order_date", fmt.Sprintf("unrecognized timestamp %q", s)})
		}
	} else {
		errs = append(errs, FieldError{"order_date", "is required"})
	}

	o.Status = "pending"
	if v, ok := rec.value("status"); ok {
		s, strOK := toString(v)
		if !strOK {
			errs = append(errs, FieldError{"status", "must be a string"})
		} else {
			o.Status = strings.ToLower(strings.TrimSpace(s))
		}
	}
	if !validStatus(o.Status) {
		errs = append(errs, FieldError{
			"status",
			"must be one of: " + strings.Join(OrderStatuses, ", "),
		})
	}

	if amount, ok := numberField(rec, "total_amount", 0, &errs); ok {
		o.TotalAmount = amount
		if amount < 0 {
			errs = append(errs, FieldError{"total_amount", "must be greater than or equal to 0"})
		}
	}

	return o, errs
}

// ValidateOrderItem coerces rec into an OrderItem. A missing subtotal is
// computed as quantity * unit_price.
func ValidateOrderItem(rec RawRecord) (OrderItem, []FieldError) {
	var errs []FieldError
	it := OrderItem{
		OrderID:   requiredString(rec, "order_id", maxKeyLen, &errs),
		ProductID: requiredString(rec, "product_id", maxKeyLen, &errs),
	}

	var ok bool
	if it.Quantity, ok = intField(rec, "quantity", 0, &errs); ok && it.Quantity <= 0 {
		errs = append(errs, FieldError{"quantity", "must be greater than 0"})
	}
	if it.UnitPrice, ok = numberField(rec, "unit_price", 0, &errs); ok && it.UnitPrice <= 0 {
		errs = append(errs, FieldError{"unit_price", "must be greater than 0"})
	}

	if isAbsent(rec, "subtotal") {
		it.Subtotal = float64(it.Quantity) * it.UnitPrice
	} else if it.Subtotal, ok = numberField(rec, "subtotal", 0, &errs); ok && it.Subtotal < 0 {
		errs = append(errs, FieldError{"subtotal", "must be greater than or equal to 0"})
	}

	return it, errs
}

// validStatus reports membership in OrderStatuses.
func validStatus(s string) bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// isAbsent reports whether the field is missing or nil.
func isAbsent(rec RawRecord, field string) bool {
	_, ok := rec.value(field)
	return !ok
}

// requiredString extracts a mandatory string field, recording an error if
// it is missing, empty, non-textual, or over max runes. max 0 disables the
// length check.
func requiredString(rec RawRecord, field string, max int, errs *[]FieldError) string {
	v, ok := rec.value(field)
	if !ok {
		*errs = append(*errs, FieldError{field, "is required"})
		return ""
	}
	s, ok := toString(v)
	if !ok {
		*errs = append(*errs, FieldError{field, "must be a string"})
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*errs = append(*errs, FieldError{field, "is required"})
		return ""
	}
	if max > 0 && utf8.RuneCountInString(s) > max {
		*errs = append(*errs, FieldError{field, fmt.Sprintf("must be at most %d characters", max)})
	}
	return s
}

// optionalString extracts an optional string field; absence yields "".
func optionalString(rec RawRecord, field string, max int, errs *[]FieldError) string {
	v, ok := rec.value(field)
	if !ok {
		return ""
	}
	s, ok := toString(v)
	if !ok {
		*errs = append(*errs, FieldError{field, "must be a string"})
		return ""
	}
	s = strings.TrimSpace(s)
	if max > 0 && utf8.RuneCountInString(s) > max {
		*errs = append(*errs, FieldError{field, fmt.Sprintf("must be at most %d characters", max)})
	}
	return s
}

// numberField extracts a numeric field, substituting def when absent.
// The second return is false only when the value was present but failed to
// parse, so callers can skip range checks on garbage input.
func numberField(rec RawRecord, field string, def float64, errs *[]FieldError) (float64, bool) {
	v, ok := rec.value(field)
	if !ok {
		return def, true
	}
	f, err := toFloat(v)
	if err != nil {
		*errs = append(*errs, FieldError{field, err.Error()})
		return def, false
	}
	return f, true
}

// intField extracts an integer field, substituting def when absent.
func intField(rec RawRecord, field string, def int, errs *[]FieldError) (int, bool) {
	v, ok := rec.value(field)
	if !ok {
		return def, true
	}
	i, err := toInt(v)
	if err != nil {
		*errs = append(*errs, FieldError{field, err.Error()})
		return def, false
	}
	return i, true
}
