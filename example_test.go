package storefront_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/fabianshop/storefront"
	"github.com/fabianshop/storefront/pkg/core"
)

// Example_basic opens a plain catalog directory, adds a product and reads it back.
func Example_basic() {
	tmpDir, err := os.MkdirTemp("", "storefront-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	svc, err := storefront.New(tmpDir,
		storefront.WithAutoInit(true),
		storefront.WithVersioning(false),
		storefront.WithSecret("s3cret"),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	// 1. Add a product
	id, err := svc.Create(ctx, "s3cret", core.DraftFrom(core.Product{
		ID:          "1",
		Name:        "Zaino Blu",
		Price:       "25.00",
		Description: "Zainetto per l'asilo con nome ricamato",
		Categories:  []core.Category{core.CategoryAsilo},
		Images:      []string{"https://res.cloudinary.com/demo/zaino.webp"},
	}))
	if err != nil {
		log.Fatal(err)
	}

	// 2. Read it back
	c, err := svc.Catalog(ctx)
	if err != nil {
		log.Fatal(err)
	}
	p, _ := c.Find(id)
	fmt.Printf("%s %s %s\n", p.ID, p.Name, p.Price)

	// 3. Adding it again is rejected
	_, err = svc.Create(ctx, "s3cret", core.DraftFrom(p))
	fmt.Println(errors.Is(err, core.ErrDuplicateID))
	// Output:
	// 1 Zaino Blu 25.00
	// true
}
