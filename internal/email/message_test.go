package email

import (
	"testing"

	"github.com/google/uuid"
	"github.com/ketowell/ketowell-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$19.99", FormatAmount(1999, "usd"))
	assert.Equal(t, "$19.99", FormatAmount(1999, "USD"))
	assert.Equal(t, "€5.00", FormatAmount(500, "eur"))
	assert.Equal(t, "£0.99", FormatAmount(99, "gbp"))
	assert.Equal(t, "12.34 SEK", FormatAmount(1234, "sek"))
}

func TestPurchaseConfirmationRendering(t *testing.T) {
	p := &models.Purchase{
		ID:              uuid.New(),
		CustomerEmail:   "a@b.com",
		CustomerName:    "A B",
		PaymentIntentID: "pi_1",
		AmountPaid:      1999,
		Currency:        "usd",
	}

	msg, err := PurchaseConfirmation(p, "https://ketowell.test/book/download?token=abc", "support@ketowell.test", 10)
	require.NoError(t, err)

	assert.Equal(t, "a@b.com", msg.To)
	assert.Contains(t, msg.HTML, "$19.99")
	assert.Contains(t, msg.HTML, "https://ketowell.test/book/download?token=abc")
	assert.Contains(t, msg.HTML, "A B")
	assert.Contains(t, msg.HTML, "pi_1")
	assert.Contains(t, msg.HTML, "10 downloads")
	assert.Contains(t, msg.HTML, "support@ketowell.test")
}

func TestPurchaseConfirmationWithoutName(t *testing.T) {
	p := &models.Purchase{
		CustomerEmail:   "a@b.com",
		PaymentIntentID: "pi_1",
		AmountPaid:      500,
		Currency:        "eur",
	}

	msg, err := PurchaseConfirmation(p, "https://link", "support@ketowell.test", 10)
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "Thanks for your purchase!")
	assert.Contains(t, msg.HTML, "€5.00")
}

func TestWaitlistConfirmationRendering(t *testing.T) {
	msg, err := WaitlistConfirmation("fan@example.com", "https://ketowell.test/waitlist/confirm?token=xyz")
	require.NoError(t, err)

	assert.Equal(t, "fan@example.com", msg.To)
	assert.Contains(t, msg.HTML, "https://ketowell.test/waitlist/confirm?token=xyz")
}
