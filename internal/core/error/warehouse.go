package errx

import "net/http"

// WrapWarehouse maps warehouse transport errors to the unified Error type.
// Query-level failures never reach here; the executor reports those as
// tagged results instead of errors.
func WrapWarehouse(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, WarehouseErrorMessage)
}
