package carriers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/courier/pkg/shipper"
	"github.com/tournevent/courier/pkg/shipper/carriers"
)

func validCredentials() map[shipper.Carrier]shipper.Credentials {
	return map[shipper.Carrier]shipper.Credentials{
		shipper.CarrierPathao: {
			"client_id": "id", "client_secret": "secret", "username": "u", "password": "p", "store_id": "42",
		},
		shipper.CarrierRedX:      {"api_key": "token"},
		shipper.CarrierSteadfast: {"api_key": "k", "secret_key": "s"},
		shipper.CarrierPaperfly: {
			"username": "u", "password": "p", "api_key": "k",
			"pickup_name": "Shop", "pickup_address": "Road 1", "pickup_thana": "Mirpur",
			"pickup_district": "Dhaka", "pickup_phone": "01711111111",
		},
	}
}

func TestOpener_OpensEveryCarrier(t *testing.T) {
	opener := carriers.NewOpener(carriers.Options{UseMock: true})

	for carrier, creds := range validCredentials() {
		t.Run(string(carrier), func(t *testing.T) {
			s, err := opener.Open(shipper.CarrierConfig{ID: carrier, TenantID: "t1", Enabled: true, Credentials: creds})

			require.NoError(t, err)
			assert.Equal(t, string(carrier), s.Name())
		})
	}
}

func TestOpener_Disabled(t *testing.T) {
	opener := carriers.NewOpener(carriers.Options{UseMock: true})

	_, err := opener.Open(shipper.CarrierConfig{
		ID:          shipper.CarrierRedX,
		Enabled:     false,
		Credentials: validCredentials()[shipper.CarrierRedX],
	})

	assert.True(t, errors.Is(err, shipper.ErrCarrierDisabled))
}

func TestOpener_MissingCredentials(t *testing.T) {
	opener := carriers.NewOpener(carriers.Options{UseMock: true})

	_, err := opener.Open(shipper.CarrierConfig{ID: shipper.CarrierPathao, Enabled: true})

	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrConfiguration))
}

func TestOpener_UnknownCarrier(t *testing.T) {
	opener := carriers.NewOpener(carriers.Options{UseMock: true})

	_, err := opener.Open(shipper.CarrierConfig{ID: "ecourier", Enabled: true})

	assert.True(t, errors.Is(err, shipper.ErrCarrierNotFound))
}

func TestOpener_MockRoundTrip(t *testing.T) {
	opener := carriers.NewOpener(carriers.Options{UseMock: true})
	s, err := opener.Open(shipper.CarrierConfig{
		ID:          shipper.CarrierRedX,
		Enabled:     true,
		Credentials: validCredentials()[shipper.CarrierRedX],
	})
	require.NoError(t, err)

	res, err := s.CreateOrder(context.Background(), &shipper.CreateOrderRequest{
		Order:      &shipper.Order{ID: "o1", PaymentMethod: shipper.PaymentCOD, Total: decimal.NewFromInt(100)},
		TrackingID: "T1",
		Delivery: shipper.DeliveryDetails{
			RecipientName:    "A",
			RecipientPhone:   "01711111111",
			RecipientAddress: "Road 2",
			City:             "Dhaka",
			Area:             "Dhanmondi",
		},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, res.ConsignmentID)
	assert.Equal(t, shipper.StatusPending, res.DeliveryStatus)
}

func TestOpener_RedXAdaptersShareAreaLookups(t *testing.T) {
	var areaCalls atomic.Int32
	firstLookup := make(chan struct{})
	gate := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/areas", func(w http.ResponseWriter, r *http.Request) {
		if areaCalls.Add(1) == 1 {
			close(firstLookup)
		}
		<-gate
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"areas":[{"id":7,"name":"Dhanmondi"}]}`))
	})
	mux.HandleFunc("/parcel", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tracking_id":"RX-1"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	opener := carriers.NewOpener(carriers.Options{
		BaseURLs: map[shipper.Carrier]string{shipper.CarrierRedX: srv.URL},
		Timeout:  5 * time.Second,
	})
	cfg := shipper.CarrierConfig{
		ID:          shipper.CarrierRedX,
		TenantID:    "t1",
		Enabled:     true,
		Credentials: validCredentials()[shipper.CarrierRedX],
	}
	first, err := opener.Open(cfg)
	require.NoError(t, err)
	second, err := opener.Open(cfg)
	require.NoError(t, err)

	req := &shipper.CreateOrderRequest{
		Order:      &shipper.Order{ID: "o1", PaymentMethod: shipper.PaymentCOD, Total: decimal.NewFromInt(100)},
		TrackingID: "T1",
		Delivery: shipper.DeliveryDetails{
			RecipientName:    "A",
			RecipientPhone:   "01711111111",
			RecipientAddress: "Road 2",
			City:             "Dhaka",
			Area:             "Dhanmondi",
		},
	}
	errs := make(chan error, 2)
	create := func(s shipper.Shipper) {
		_, err := s.CreateOrder(context.Background(), req)
		errs <- err
	}

	go create(first)
	select {
	case <-firstLookup:
	case <-time.After(5 * time.Second):
		t.Fatal("area lookup never reached the server")
	}
	go create(second)
	time.Sleep(100 * time.Millisecond)
	close(gate)

	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	assert.Equal(t, int32(1), areaCalls.Load())
}
