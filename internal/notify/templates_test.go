package notify

import (
	"testing"
	"time"

	"shopfront/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() *model.Order {
	return &model.Order{
		ID:         uuid.MustParse("3f2a9c1e-0000-4000-8000-000000000001"),
		BuyerID:    "buyer-1",
		BuyerEmail: "account@example.com",
		Status:     model.StatusPending,
		Subtotal:   decimal.RequireFromString("20.00"),
		Shipping:   decimal.RequireFromString("10"),
		Tax:        decimal.RequireFromString("1.60"),
		Total:      decimal.RequireFromString("31.60"),
		ShippingAddress: model.Address{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Address:   "12 Analytical Way",
			City:      "London",
			State:     "LDN",
			ZipCode:   "N1 9GU",
			Country:   "UK",
		},
		Lines: []model.OrderLine{{
			ProductID:   "P001",
			ProductName: "Mug <XL>",
			UnitPrice:   decimal.RequireFromString("10.00"),
			Quantity:    2,
			LineTotal:   decimal.RequireFromString("20.00"),
		}},
		CreatedAt: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	}
}

func TestSubject(t *testing.T) {
	order := testOrder()

	assert.Equal(t, "Order Confirmation - Order #3f2a9c1e", Subject(KindOrderConfirmation, order))
	assert.Equal(t, "Your Order Has Shipped - Order #3f2a9c1e", Subject(KindOrderShipped, order))
	assert.Equal(t, "Your Order Has Been Delivered - Order #3f2a9c1e", Subject(KindOrderDelivered, order))
}

func TestTemplates_Render(t *testing.T) {
	templates, err := DefaultTemplates()
	require.NoError(t, err)

	msg, err := templates.Render(KindOrderConfirmation, testOrder())
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, KindOrderConfirmation, msg.Kind)
	assert.Contains(t, msg.HTMLBody, "#3f2a9c1e")
	assert.Contains(t, msg.HTMLBody, "$31.60")
	assert.Contains(t, msg.HTMLBody, "Mar 4, 2026")
	// product names are escaped
	assert.Contains(t, msg.HTMLBody, "Mug &lt;XL&gt;")

	for _, kind := range []Kind{KindOrderShipped, KindOrderDelivered} {
		msg, err := templates.Render(kind, testOrder())
		require.NoError(t, err)
		assert.Contains(t, msg.HTMLBody, "#3f2a9c1e")
	}
}

func TestTemplates_Override(t *testing.T) {
	templates, err := DefaultTemplates()
	require.NoError(t, err)

	require.NoError(t, templates.Override(KindOrderShipped, []byte(`<p>Shipped {{.ShortID}} to {{.Order.ShippingAddress.City}}</p>`)))

	msg, err := templates.Render(KindOrderShipped, testOrder())
	require.NoError(t, err)
	assert.Equal(t, "<p>Shipped 3f2a9c1e to London</p>", msg.HTMLBody)

	assert.Error(t, templates.Override(KindOrderShipped, []byte(`{{.Broken`)))

	_, err = templates.Render(Kind("unknown"), testOrder())
	assert.Error(t, err)
}

func TestRecipient_FallsBackToBuyerEmail(t *testing.T) {
	order := testOrder()
	order.ShippingAddress.Email = ""

	assert.Equal(t, "account@example.com", Recipient(order))
}

func TestKindForStatus(t *testing.T) {
	kind, ok := KindForStatus(model.StatusShipped)
	assert.True(t, ok)
	assert.Equal(t, KindOrderShipped, kind)

	kind, ok = KindForStatus(model.StatusDelivered)
	assert.True(t, ok)
	assert.Equal(t, KindOrderDelivered, kind)

	for _, s := range []model.OrderStatus{model.StatusPending, model.StatusConfirmed, model.StatusCancelled} {
		_, ok := KindForStatus(s)
		assert.False(t, ok, s)
	}
}
