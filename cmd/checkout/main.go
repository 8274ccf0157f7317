// Command checkout places and pays for an order against a running storefront.
//
//	checkout -item 'bpc-157|BPC-157|89.99|2|5mg' -first Ada -last Lovelace \
//	  -email ada@example.com -phone +15550100 -address '1 Main St' -city Toronto \
//	  -state ON -zip 'M5V 1A1' -country CA -method solana -keypair ~/.config/solana/id.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/checkout"
	"github.com/corray333/backend-labs/storefront/internal/checkout/wallet"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/service/pricing"
	"github.com/corray333/backend-labs/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// parseItem reads "productId|name|price|quantity[|specs]".
func parseItem(s string) (orderitem.OrderItem, error) {
	parts := strings.Split(s, "|")
	if len(parts) < 4 {
		return orderitem.OrderItem{}, fmt.Errorf("item %q: want productId|name|price|quantity[|specs]", s)
	}

	price, err := decimal.NewFromString(parts[2])
	if err != nil {
		return orderitem.OrderItem{}, fmt.Errorf("item %q: bad price: %w", s, err)
	}
	qty, err := strconv.Atoi(parts[3])
	if err != nil {
		return orderitem.OrderItem{}, fmt.Errorf("item %q: bad quantity: %w", s, err)
	}

	item := orderitem.OrderItem{ProductID: parts[0], Name: parts[1], UnitPrice: price, Quantity: qty}
	if len(parts) > 4 {
		item.Specs = parts[4]
	}

	return item, nil
}

func main() {
	var (
		apiURL   = flag.String("api", "http://localhost:8080/api", "storefront API base URL")
		timeout  = flag.Duration("timeout", 45*time.Second, "per-request timeout")
		taxRate  = flag.String("tax-rate", pricing.DefaultTaxRate.String(), "tax rate used for the preview")
		shipFee  = flag.String("shipping-fee", pricing.DefaultShippingFee.String(), "shipping fee used for the preview")
		method   = flag.String("method", "card", "payment method: card, solana or etransfer")
		currency = flag.String("currency", "", "order currency, server default when empty")
		pmID     = flag.String("payment-method-id", "", "card payment method id")
		sig      = flag.String("signature", "", "transaction signature of a manual SOL transfer")
		ref      = flag.String("reference", "", "e-Transfer reference")
		keypair  = flag.String("keypair", "", "solana-keygen keypair file to pay from")
		rpcURL   = flag.String("rpc", "https://api.mainnet-beta.solana.com", "Solana RPC endpoint for -keypair")
		verbose  = flag.Bool("v", false, "debug logging")

		cust order.Customer
		ship order.ShippingAddress
	)
	flag.StringVar(&cust.FirstName, "first", "", "customer first name")
	flag.StringVar(&cust.LastName, "last", "", "customer last name")
	flag.StringVar(&cust.Email, "email", "", "customer e-mail")
	flag.StringVar(&cust.Phone, "phone", "", "customer phone")
	flag.StringVar(&ship.Address, "address", "", "street address")
	flag.StringVar(&ship.City, "city", "", "city")
	flag.StringVar(&ship.State, "state", "", "state or province")
	flag.StringVar(&ship.ZipCode, "zip", "", "postal code")
	flag.StringVar(&ship.Country, "country", "", "country")

	cart := checkout.NewCart()
	flag.Func("item", "cart line productId|name|price|quantity[|specs], repeatable", func(s string) error {
		item, err := parseItem(s)
		if err != nil {
			return err
		}
		cart.AddItem(item)

		return nil
	})
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(logger.NewHandler(&slog.HandlerOptions{Level: level})))

	if err := run(cart, cust, ship, options{
		apiURL:   *apiURL,
		timeout:  *timeout,
		taxRate:  *taxRate,
		shipFee:  *shipFee,
		method:   *method,
		currency: *currency,
		input:    adapters.Input{PaymentMethodID: *pmID, Signature: *sig, Reference: *ref},
		keypair:  *keypair,
		rpcURL:   *rpcURL,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "checkout:", err)
		os.Exit(1)
	}
}

type options struct {
	apiURL   string
	timeout  time.Duration
	taxRate  string
	shipFee  string
	method   string
	currency string
	input    adapters.Input
	keypair  string
	rpcURL   string
}

func run(cart *checkout.Cart, cust order.Customer, ship order.ShippingAddress, opts options) error {
	m, err := payment.ParseMethod(opts.method)
	if err != nil {
		return err
	}
	taxRate, err := decimal.NewFromString(opts.taxRate)
	if err != nil {
		return fmt.Errorf("bad -tax-rate: %w", err)
	}
	shipFee, err := decimal.NewFromString(opts.shipFee)
	if err != nil {
		return fmt.Errorf("bad -shipping-fee: %w", err)
	}

	o := checkout.NewOrchestrator(cart,
		pricing.NewCalculator(taxRate, shipFee),
		checkout.NewHTTPClient(opts.apiURL, opts.timeout),
	)
	o.OnStep(func(s checkout.Step) {
		slog.Debug("Checkout step", "step", s)
	})

	if err := o.SetShipping(cust, ship); err != nil {
		if fields := apperr.FieldsOf(err); len(fields) > 0 {
			return fmt.Errorf("missing or invalid: %s", strings.Join(fields, ", "))
		}

		return err
	}

	totals := o.Preview()
	fmt.Printf("Subtotal %s  Tax %s  Shipping %s  Total %s\n",
		totals.Subtotal.StringFixed(2), totals.Tax.StringFixed(2),
		totals.Shipping.StringFixed(2), totals.Total.StringFixed(2))

	sel := checkout.Selection{Method: m, Input: opts.input, Currency: opts.currency}
	if m == payment.MethodChain && opts.keypair != "" {
		sel.Wallet = wallet.NewKeypairFromEndpoint(opts.keypair, opts.rpcURL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := o.Submit(ctx, sel)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !res.Success {
		return errors.New(res.Detail)
	}

	return nil
}
