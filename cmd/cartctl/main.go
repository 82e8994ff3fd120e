package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"storefront/internal/cartclient"
	"storefront/internal/logger"
	"storefront/internal/pricing"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "cartctl", Level: logger.ParseLevel("warn"), Format: logger.FormatConsole, Output: os.Stderr})

	_ = godotenv.Load()

	// Flags
	cmd := flag.String("cmd", "show", "command: show|add|set|remove|clear|checkout|orders|order|new")
	apiURL := flag.String("api", envOr("STOREFRONT_API_URL", "http://localhost:8080"), "storefront API base url")
	idFile := flag.String("id-file", "", "cart id file (default: user config dir)")
	taxRate := flag.String("tax-rate", os.Getenv("STOREFRONT_TAX_RATE"), "tax rate override for totals (default: the server's rate)")
	timeout := flag.Duration("timeout", cartclient.DefaultRequestTimeout, "per-request timeout")

	// Command-specific flags
	product := flag.Int64("product", 0, "product id (add)")
	item := flag.Int64("item", 0, "cart item id (set, remove)")
	qty := flag.Int64("qty", 1, "quantity (add, set; <=0 removes on set)")
	order := flag.Int64("order", 0, "order id (order)")
	name := flag.String("name", "", "customer name (checkout)")
	email := flag.String("email", "", "customer email (checkout)")
	phone := flag.String("phone", "", "customer phone (checkout)")
	address := flag.String("address", "", "shipping address (checkout)")

	flag.Parse()

	// 未指定ならサーバーの税率を使う
	var calc *pricing.Calculator
	if *taxRate != "" {
		rate, err := decimal.NewFromString(*taxRate)
		exitOn(err, "invalid -tax-rate")
		c, err := pricing.NewCalculator(rate)
		exitOn(err, "invalid -tax-rate")
		calc = &c
	}

	var err error
	path := *idFile
	if path == "" {
		path, err = cartclient.DefaultIDPath()
		exitOn(err, "resolve cart id path")
	}

	client, err := cartclient.New(cartclient.Options{
		BaseURL:        *apiURL,
		IDStore:        cartclient.NewFileIDStore(path),
		Calculator:     calc,
		Logger:         logg,
		RequestTimeout: *timeout,
		Notifier: cartclient.NotifierFunc(func(err error) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}),
	})
	exitOn(err, "create client")

	if *cmd == "new" {
		// 取得に失敗してもIDは読み込まれる
		_ = client.Init(ctx)
		exitOn(client.NewCart(ctx), "new cart")
		fmt.Println("new cart:", client.CartID())
		return
	}

	exitOn(client.Init(ctx), "load cart")

	switch *cmd {
	case "show":
	case "add":
		if *product <= 0 {
			fail("missing -product for add")
		}
		exitOn(client.AddToCart(ctx, *product, *qty), "add to cart")
	case "set":
		if *item <= 0 {
			fail("missing -item for set")
		}
		exitOn(client.UpdateQuantity(ctx, *item, *qty), "update quantity")
	case "remove":
		if *item <= 0 {
			fail("missing -item for remove")
		}
		exitOn(client.RemoveItem(ctx, *item), "remove item")
	case "clear":
		exitOn(client.ClearCart(ctx), "clear cart")
	case "checkout":
		o, err := client.Checkout(ctx, cartclient.OrderDraft{
			CustomerName:    *name,
			CustomerEmail:   *email,
			CustomerPhone:   *phone,
			ShippingAddress: *address,
		})
		exitOn(err, "checkout")
		printJSON(o)
		return
	case "orders":
		orders, err := client.Orders(ctx)
		exitOn(err, "list orders")
		printJSON(orders)
		return
	case "order":
		if *order <= 0 {
			fail("missing -order for order")
		}
		o, err := client.GetOrder(ctx, *order)
		exitOn(err, "get order")
		printJSON(o)
		return
	default:
		fail("unknown -cmd value: " + *cmd)
	}

	printCart(client)
}

func printCart(c *cartclient.Client) {
	fmt.Printf("cart %s\n", c.CartID())
	for _, it := range c.Items() {
		fmt.Printf("  #%-4d %-28s x%-3d %8d\n", it.ID, it.Product.Name, it.Quantity, pricing.LineSubtotal(pricing.Line{Product: it.Product.Product, Quantity: it.Quantity}))
	}
	fmt.Printf("items    %d\n", c.ItemCount())
	fmt.Printf("subtotal %d\n", c.CartTotal())
	fmt.Printf("tax      %d (%s)\n", c.TaxAmount(), c.TaxRate())
	fmt.Printf("total    %d\n", c.FinalTotal())
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func exitOn(err error, what string) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
