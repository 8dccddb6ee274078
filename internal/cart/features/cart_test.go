package features

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/mirror"
)

type cartTestContext struct {
	backend *mirror.Memory
	store   *cart.Store
	err     error
}

func (c *cartTestContext) reset() {
	c.backend = mirror.NewMemory()
	c.store = nil
	c.err = nil
}

func (c *cartTestContext) open() error {
	c.store = cart.NewStore(mirror.Session(c.backend, "feature-session"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return c.store.WaitReady(ctx)
}

func (c *cartTestContext) anEmptyCart() error {
	return c.open()
}

func (c *cartTestContext) iReloadTheSession() error {
	return c.open()
}

func productFor(id string, price int) cart.Product {
	return cart.Product{ID: id, Name: "Product " + id, Price: decimal.NewFromInt(int64(price))}
}

func (c *cartTestContext) iAdd(qty int, id string, price int, size string) error {
	c.err = c.store.AddToCart(context.Background(), productFor(id, price), qty, cart.Size(size))
	return nil
}

func (c *cartTestContext) iStage(qty int, id string, price int, size string) error {
	c.err = c.store.AddSingleProduct(context.Background(), productFor(id, price), qty, cart.Size(size))
	return nil
}

func (c *cartTestContext) iDecrease(id, size string) error {
	c.err = c.store.DecreaseQuantity(context.Background(), id, cart.Size(size))
	return nil
}

func (c *cartTestContext) iIncrease(id, size string) error {
	c.err = c.store.IncreaseQuantity(context.Background(), id, cart.Size(size))
	return nil
}

func (c *cartTestContext) iRemove(id string) error {
	c.err = c.store.RemoveFromCart(context.Background(), id)
	return nil
}

func (c *cartTestContext) iClearTheCart() error {
	c.store.ClearCart(context.Background())
	return nil
}

func (c *cartTestContext) theCartHasLines(n int) error {
	if got := len(c.store.Items()); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) theStagingAreaHasLines(n int) error {
	if got := len(c.store.SingleProducts()); got != n {
		return fmt.Errorf("expected %d staged lines, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) lineHasQuantity(id, size string, qty int) error {
	want := cart.Key{ProductID: id, Size: cart.Size(size)}
	for _, it := range c.store.Items() {
		if it.Key() == want {
			if it.Quantity != qty {
				return fmt.Errorf("expected quantity %d for %s, got %d", qty, want, it.Quantity)
			}
			return nil
		}
	}
	return fmt.Errorf("line %s not found", want)
}

func (c *cartTestContext) theCartTotalIs(total int) error {
	if got := c.store.Total(); !got.Equal(decimal.NewFromInt(int64(total))) {
		return fmt.Errorf("expected total %d, got %s", total, got)
	}
	return nil
}

func (c *cartTestContext) noErrorWasReturned() error {
	if c.err != nil {
		return fmt.Errorf("unexpected error: %w", c.err)
	}
	return nil
}

func (c *cartTestContext) theErrorIs(msg string) error {
	if c.err == nil {
		return errors.New("expected an error, got none")
	}
	if !strings.Contains(c.err.Error(), msg) {
		return fmt.Errorf("expected error %q, got %q", msg, c.err.Error())
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)

	// When steps
	ctx.Step(`^I add (-?\d+) of product "([^"]*)" priced (\d+) in size "([^"]*)"$`, tc.iAdd)
	ctx.Step(`^I stage (-?\d+) of product "([^"]*)" priced (\d+) in size "([^"]*)"$`, tc.iStage)
	ctx.Step(`^I decrease product "([^"]*)" size "([^"]*)"$`, tc.iDecrease)
	ctx.Step(`^I increase product "([^"]*)" size "([^"]*)"$`, tc.iIncrease)
	ctx.Step(`^I remove product "([^"]*)"$`, tc.iRemove)
	ctx.Step(`^I clear the cart$`, tc.iClearTheCart)
	ctx.Step(`^I reload the session$`, tc.iReloadTheSession)

	// Then steps
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^the staging area has (\d+) lines?$`, tc.theStagingAreaHasLines)
	ctx.Step(`^line "([^"]*)" size "([^"]*)" has quantity (\d+)$`, tc.lineHasQuantity)
	ctx.Step(`^the cart total is (\d+)$`, tc.theCartTotalIs)
	ctx.Step(`^no error was returned$`, tc.noErrorWasReturned)
	ctx.Step(`^the error is "([^"]*)"$`, tc.theErrorIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
