package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alexflint/go-arg"

	"github.com/tradepost/go-mediation/client"
	"github.com/tradepost/go-mediation/models"
)

type createCmd struct {
	Item              string `arg:"--item,required" help:"item being traded"`
	Price             string `arg:"--price" help:"agreed or asking price"`
	Terms             string `arg:"--terms" help:"free-form trade terms"`
	Urgency           string `arg:"--urgency" help:"low, normal or high"`
	PreferredMediator string `arg:"--preferred-mediator" help:"mediator the requester would like to handle the trade"`
}

type getCmd struct {
	RequestId string `arg:"positional,required" help:"request id"`
}

type transitionCmd struct {
	RequestId  string `arg:"positional,required" help:"request id"`
	Action     string `arg:"positional,required" help:"claim, complete, cancel or reopen"`
	ClaimantId string `arg:"--claimant" help:"assign the claim to this mediator instead of the caller"`
}

type args struct {
	Create     *createCmd     `arg:"subcommand:create" help:"open a new mediation request"`
	Get        *getCmd        `arg:"subcommand:get" help:"show a request and the actions available to the caller"`
	Transition *transitionCmd `arg:"subcommand:transition" help:"claim, complete, cancel or reopen a request"`

	Url     string        `arg:"--url,env:MEDIATOR_URL" default:"http://localhost:8080" help:"mediator API base URL"`
	Actor   string        `arg:"--actor,env:MEDIATOR_ACTOR,required" help:"identity to act as"`
	Timeout time.Duration `arg:"--timeout" default:"30s" help:"per-call timeout"`
}

func (args) Description() string {
	return "mediationctl talks to the trade mediator API\n"
}

func main() {
	log.SetFlags(0)
	var a args
	p := arg.MustParse(&a)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.Timeout)
	defer cancel()

	c := client.New(a.Url, a.Actor, nil)
	switch {
	case a.Create != nil:
		req, err := c.Create(ctx, models.RequestPayload{
			Item:              a.Create.Item,
			Price:             a.Create.Price,
			Terms:             a.Create.Terms,
			Urgency:           a.Create.Urgency,
			PreferredMediator: a.Create.PreferredMediator,
		})
		if err != nil {
			log.Fatalf("create: %v", err)
		}
		printJSON(req)
	case a.Get != nil:
		detail, err := c.Get(ctx, a.Get.RequestId)
		if err != nil {
			log.Fatalf("get: %v", err)
		}
		printJSON(detail)
	case a.Transition != nil:
		outcome := c.Transition(ctx, a.Transition.RequestId, models.Action(a.Transition.Action), a.Transition.ClaimantId)
		printJSON(outcome)
		if !outcome.Success {
			os.Exit(exitCode(outcome))
		}
	}
}

// exitCode lets scripts tell a retryable failure apart from a final one.
func exitCode(outcome models.Outcome) int {
	if outcome.Retryable() {
		return 75
	}
	return 1
}

func printJSON(v any) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("encode: %v", err)
	}
	fmt.Println(string(encoded))
}
