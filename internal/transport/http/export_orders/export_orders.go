package exportorders

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	listorders "github.com/corray333/backend-labs/storefront/internal/transport/http/list_orders"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
)

type service interface {
	ExportCSV(ctx context.Context, filter order.QueryOrdersModel, w io.Writer) error
}

// ExportOrders sends the filtered orders as a CSV attachment.
// The file is built in memory so a failure can still be reported as JSON.
func ExportOrders(w http.ResponseWriter, r *http.Request, service service) {
	filter, err := listorders.ParseQuery(r)
	if err != nil {
		response.Error(w, r, err)

		return
	}

	var buf bytes.Buffer
	if err := service.ExportCSV(r.Context(), filter, &buf); err != nil {
		slog.Error("Error exporting orders", "error", err)
		response.Error(w, r, err)

		return
	}

	filename := "orders-" + time.Now().UTC().Format(time.DateOnly) + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Error sending csv export", "error", err)
	}
}
