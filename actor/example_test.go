package actor_test

import (
	"context"
	"fmt"
	"time"

	"github.com/amp-labs/eventual/actor"
)

type Account struct {
	balance int
}

func ExampleRuntime_Send() {
	dispatcher := actor.NewDispatcher(
		actor.Handle("deposit", func(_ context.Context, _ *actor.Actor, a *Account, args []any) (any, error) {
			amount, ok := args[0].(int)
			if !ok || amount <= 0 {
				return nil, actor.Raise("invalid amount")
			}

			a.balance += amount

			return a.balance, nil
		}),
	)

	rt := actor.New(dispatcher)
	if err := rt.Start(context.Background(), 2); err != nil {
		panic(err)
	}

	defer func() {
		_ = rt.Shutdown(time.Second)
	}()

	account, err := rt.CreateActor(&Account{})
	if err != nil {
		panic(err)
	}

	ctx := context.Background()

	for _, amount := range []int{10, 32, -5} {
		p, err := rt.Send(rt.Main(), "deposit", account, amount)
		if err != nil {
			panic(err)
		}

		balance, err := p.Await(ctx)
		if err != nil {
			fmt.Println("error:", err)

			continue
		}

		fmt.Println("balance:", balance)
	}

	// Output:
	// balance: 10
	// balance: 42
	// error: exception: invalid amount
}

func ExampleRuntime_Run() {
	dispatcher := actor.NewDispatcher(
		actor.Handle("main", func(_ context.Context, self *actor.Actor, name string, _ []any) (any, error) {
			// A near send: queued on the main actor and run after this message.
			return self.Runtime().Send(self, "greet", name)
		}),
		actor.Handle("greet", func(_ context.Context, _ *actor.Actor, name string, _ []any) (any, error) {
			return "hello, " + name, nil
		}),
	)

	rt := actor.New(dispatcher)
	if err := rt.Start(context.Background(), 1); err != nil {
		panic(err)
	}

	defer func() {
		_ = rt.Shutdown(time.Second)
	}()

	p, err := rt.Run(context.Background(), "main", "world")
	if err != nil {
		panic(err)
	}

	greeting, err := p.Await(context.Background())
	if err != nil {
		panic(err)
	}

	fmt.Println(greeting)

	// Output:
	// hello, world
}
