package taxlot

import (
	"testing"
	"time"
)

func TestValidateSale(t *testing.T) {
	good := newSale("ACME", NewDate(2024, time.June, 10), 100, 175)
	if err := ValidateSale(good); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	noDate := good
	noDate.SaleDate = Date{}
	if err := ValidateSale(noDate); !IsKind(err, KindValidation) {
		t.Errorf("missing date: got %v", err)
	}

	negative := good
	negative.Shares = Q(-1)
	if err := ValidateSale(negative); !IsKind(err, KindValidation) {
		t.Errorf("negative shares: got %v", err)
	}

	anonymous := good
	anonymous.Security = NewSecurity("", "")
	if err := ValidateSale(anonymous); !IsKind(err, KindValidation) {
		t.Errorf("no identity: got %v", err)
	}
}

func TestValidateLot(t *testing.T) {
	good := newLot("lot-1", RSU, "ACME", NewDate(2023, time.May, 15), 100, 150)
	if err := ValidateLot(good); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	over := newLot("lot-2", RSU, "ACME", NewDate(2023, time.May, 15), 100, 150)
	over.SharesRemaining = Q(150)
	if err := ValidateLot(over); !IsKind(err, KindValidation) {
		t.Errorf("remaining above total: got %v", err)
	}

	zero := newLot("lot-3", RSU, "ACME", NewDate(2023, time.May, 15), 0, 150)
	if err := ValidateLot(zero); !IsKind(err, KindValidation) {
		t.Errorf("zero shares: got %v", err)
	}
}

func TestValidateEvent(t *testing.T) {
	good := esppPurchase(NewDate(2023, time.January, 1), NewDate(2023, time.June, 30), 127.50, 150, 140, 50)
	if err := ValidateEvent(good); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	backwards := esppPurchase(NewDate(2023, time.June, 30), NewDate(2023, time.January, 1), 127.50, 150, 140, 50)
	if err := ValidateEvent(backwards); !IsKind(err, KindValidation) {
		t.Errorf("event before grant: got %v", err)
	}
}
