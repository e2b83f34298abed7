package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	orderDemoSeedApplication = "order_demo"

	demoBoothID       = 1
	demoTableCount    = 8
	demoInactiveTable = 8
	demoBusyTable     = 7
)

type demoMenuItem struct {
	name     string
	price    int64
	category string
}

var demoMenu = []demoMenuItem{
	{name: "Tteokbokki", price: 5000, category: "FOOD"},
	{name: "Fried Chicken", price: 7000, category: "FOOD"},
	{name: "Kimchi Pancake", price: 6000, category: "FOOD"},
	{name: "Cola", price: 1500, category: "DRINK"},
	{name: "Lemonade", price: 3000, category: "DRINK"},
}

// ApplyDemoSeeds loads the demo booth: tables, menu and one busy table.
func ApplyDemoSeeds(ctx context.Context, repos Repos, db *mongo.Database, loc *time.Location, logger apt.Logger) error {
	if db == nil {
		return errors.New("database is required for demo seeding")
	}

	tracker := seed.NewMongoTracker(db)

	logger.Info("Applying demo order seeds")
	if err := seed.Apply(ctx, tracker, buildDemoSeeds(repos, loc, logger), orderDemoSeedApplication); err != nil {
		return err
	}
	logger.Info("Demo order seeds applied successfully")
	return nil
}

func buildDemoSeeds(repos Repos, loc *time.Location, logger apt.Logger) []seed.Seed {
	return []seed.Seed{
		{
			ID:          "2025-10-01_demo_booth_tables_v1",
			Description: "Create demo booth tables",
			Run: func(ctx context.Context) error {
				return seedDemoTables(ctx, repos, logger)
			},
		},
		{
			ID:          "2025-10-01_demo_booth_menu_v1",
			Description: "Create demo booth menu",
			Run: func(ctx context.Context) error {
				return seedDemoMenu(ctx, repos, logger)
			},
		},
		{
			ID:          "2025-10-01_demo_booth_account_v1",
			Description: "Set the demo booth transfer account",
			Run: func(ctx context.Context) error {
				return seedDemoAccount(ctx, repos, logger)
			},
		},
		{
			ID:          "2025-10-01_demo_busy_table_v1",
			Description: "Open a visit with two pending orders on the busy table",
			Run: func(ctx context.Context) error {
				return seedDemoBusyTable(ctx, repos, loc, time.Now(), logger)
			},
		},
	}
}

func seedDemoTables(ctx context.Context, repos Repos, logger apt.Logger) error {
	for number := 1; number <= demoTableCount; number++ {
		existing, err := repos.TableRepo.GetByNumber(ctx, demoBoothID, number)
		if err != nil {
			return fmt.Errorf("find table %d: %w", number, err)
		}
		if existing != nil {
			continue
		}

		id, err := repos.Sequencer.Next(ctx, SeqTables)
		if err != nil {
			return fmt.Errorf("allocate table id: %w", err)
		}

		table := NewTable(demoBoothID, number)
		table.ID = id
		table.Active = number != demoInactiveTable
		table.BeforeCreate()

		if err := repos.TableRepo.Create(ctx, table); err != nil {
			return fmt.Errorf("create table %d: %w", number, err)
		}
	}

	logger.Info("Demo tables created", "booth_id", demoBoothID, "count", demoTableCount)
	return nil
}

func seedDemoMenu(ctx context.Context, repos Repos, logger apt.Logger) error {
	for _, dm := range demoMenu {
		existing, err := repos.MenuItemRepo.GetByName(ctx, demoBoothID, dm.name)
		if err != nil {
			return fmt.Errorf("find menu item %s: %w", dm.name, err)
		}
		if existing != nil {
			continue
		}

		id, err := repos.Sequencer.Next(ctx, SeqMenuItems)
		if err != nil {
			return fmt.Errorf("allocate menu item id: %w", err)
		}

		item := &MenuItem{
			ID:        id,
			BoothID:   demoBoothID,
			Name:      dm.name,
			Price:     dm.price,
			Available: true,
			Category:  dm.category,
		}
		item.BeforeCreate()

		if err := repos.MenuItemRepo.Create(ctx, item); err != nil {
			return fmt.Errorf("create menu item %s: %w", dm.name, err)
		}
	}

	logger.Info("Demo menu created", "booth_id", demoBoothID, "items", len(demoMenu))
	return nil
}

// seedDemoBusyTable opens a visit on the busy table with a 7000 order and,
// one minute later, a 3000 add-on order. Both stay PENDING.
func seedDemoAccount(ctx context.Context, repos Repos, logger apt.Logger) error {
	existing, err := repos.BoothAccountRepo.Get(ctx, demoBoothID)
	if err != nil {
		return fmt.Errorf("find booth account: %w", err)
	}
	if existing != nil {
		return nil
	}

	account := &BoothAccount{
		BoothID:       demoBoothID,
		AccountBank:   "Kakao Bank",
		AccountNo:     "3333-01-2345678",
		AccountHolder: "Student Council",
	}
	account.BeforeUpdate()

	if err := repos.BoothAccountRepo.Upsert(ctx, account); err != nil {
		return fmt.Errorf("save booth account: %w", err)
	}

	logger.Info("Demo booth account set", "booth_id", demoBoothID)
	return nil
}

func seedDemoBusyTable(ctx context.Context, repos Repos, loc *time.Location, now time.Time, logger apt.Logger) error {
	table, err := repos.TableRepo.GetByNumber(ctx, demoBoothID, demoBusyTable)
	if err != nil {
		return fmt.Errorf("find table %d: %w", demoBusyTable, err)
	}
	if table == nil {
		return fmt.Errorf("demo table %d not found", demoBusyTable)
	}

	visit, err := repos.VisitRepo.FindOpen(ctx, table.ID)
	if err != nil {
		return fmt.Errorf("find open visit: %w", err)
	}
	if visit != nil {
		logger.Info("Demo busy table already has an open visit, skipping", "table_id", table.ID)
		return nil
	}

	chicken, err := repos.MenuItemRepo.GetByName(ctx, demoBoothID, "Fried Chicken")
	if err != nil || chicken == nil {
		return fmt.Errorf("demo menu item Fried Chicken missing: %v", err)
	}
	lemonade, err := repos.MenuItemRepo.GetByName(ctx, demoBoothID, "Lemonade")
	if err != nil || lemonade == nil {
		return fmt.Errorf("demo menu item Lemonade missing: %v", err)
	}

	lastNo, err := repos.VisitRepo.LastVisitNo(ctx, table.ID)
	if err != nil {
		return fmt.Errorf("last visit number: %w", err)
	}
	visitID, err := repos.Sequencer.Next(ctx, SeqVisits)
	if err != nil {
		return fmt.Errorf("allocate visit id: %w", err)
	}

	startedAt := now.Add(-10 * time.Minute)
	visit = NewVisit(table, lastNo+1)
	visit.ID = visitID
	visit.StartedAt = startedAt
	if err := repos.VisitRepo.Create(ctx, visit); err != nil {
		return fmt.Errorf("create visit: %w", err)
	}

	first := []OrderItem{{FoodID: chicken.ID, Name: chicken.Name, Price: chicken.Price, Quantity: 1}}
	addOn := []OrderItem{{FoodID: lemonade.ID, Name: lemonade.Name, Price: lemonade.Price, Quantity: 1}}

	if err := createDemoOrder(ctx, repos, table, visit, first, "Minji", 7000, startedAt, loc); err != nil {
		return err
	}
	if err := createDemoOrder(ctx, repos, table, visit, addOn, "Minji", 3000, startedAt.Add(time.Minute), loc); err != nil {
		return err
	}

	logger.Info("Demo busy table seeded", "table_id", table.ID, "visit_id", visit.ID)
	return nil
}

func createDemoOrder(ctx context.Context, repos Repos, table *Table, visit *Visit, items []OrderItem, payer string, amount int64, at time.Time, loc *time.Location) error {
	id, err := repos.Sequencer.Next(ctx, SeqOrders)
	if err != nil {
		return fmt.Errorf("allocate order id: %w", err)
	}

	o := NewOrder(table, visit)
	o.ID = id
	o.Items = items
	o.TotalAmount = amount
	o.Payment = &Payment{PayerName: payer, Amount: amount, PaidAt: at}
	o.CreatedAt = at
	o.BeforeCreate()
	o.AssignCode(loc)

	if err := repos.OrderRepo.Create(ctx, o); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// DemoSeedingFunc returns a lifecycle start hook that seeds in the background.
func DemoSeedingFunc(seedCtx context.Context, repos Repos, db *mongo.Database, loc *time.Location, logger apt.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		logger.Info("Starting demo order seeding in background")
		go func() {
			if err := ApplyDemoSeeds(seedCtx, repos, db, loc, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Demo order seeds failed: %v", err)
			} else if err == nil {
				logger.Info("Demo order seeding completed successfully")
			}
		}()
		return nil
	}
}
