package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/abelbrown/parcelscout/internal/apperr"
	"github.com/abelbrown/parcelscout/internal/validate"
)

// User-facing resolution messages.
const (
	MsgAddressRequired  = "Address is required"
	MsgParcelIDRequired = "Parcel ID is required"
	MsgNoValidParcelID  = "No valid parcel ID found for this address. Please try another address."
)

// ResolveParcel maps an address to the backend's parcel identifier. The
// returned id is guaranteed to satisfy validate.ParcelID; anything else the
// backend sends back (including an echo of the address) is a validation
// failure.
func (c *Client) ResolveParcel(ctx context.Context, address string) (string, error) {
	addr := strings.TrimSpace(address)
	if addr == "" {
		return "", apperr.Validation(MsgAddressRequired).WithOp("api.resolve")
	}

	var resp parcelIDResponse
	if err := c.getJSON(ctx, "api.resolve", PathParcelID, url.Values{"address": {addr}}, &resp); err != nil {
		return "", err
	}

	if err := validate.Default.Struct(resp); err != nil {
		return "", apperr.Validation(MsgNoValidParcelID).WithOp("api.resolve")
	}
	return string(resp.ParcelID), nil
}

// ParcelStatus fetches the processing status for parcelID.
func (c *Client) ParcelStatus(ctx context.Context, parcelID string) (ProcessingStatus, error) {
	id := strings.TrimSpace(parcelID)
	if id == "" {
		return ProcessingStatus{}, apperr.Validation(MsgParcelIDRequired).WithOp("api.status")
	}

	var st ProcessingStatus
	if err := c.getJSON(ctx, "api.status", PathParcelStatus, url.Values{"parcel_id": {id}}, &st); err != nil {
		return ProcessingStatus{}, err
	}
	if st.ParcelID == "" {
		st.ParcelID = id
	}
	return st, nil
}
