package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	ossignal "os/signal"

	"github.com/elee1766/polaris/src/events"
	"github.com/elee1766/polaris/src/network"
	"github.com/elee1766/polaris/src/polarisagent"
	"github.com/elee1766/polaris/src/storage"
)

// PromptCmd processes one message without the HTTP server or a bus
type PromptCmd struct {
	Message      string `arg:"" help:"Message to send"`
	Conversation string `help:"Continue this conversation instead of creating a project"`
	Owner        string `default:"cli" help:"Owner of a newly created project"`
	Verbose      bool   `short:"v" help:"Print tool calls as they happen"`
	NoDiff       bool   `help:"Do not print the file changes"`
}

// publisherFunc delivers events straight to a handler.
type publisherFunc events.Handler

func (f publisherFunc) Publish(ctx context.Context, ev events.Event) error {
	return f(ctx, ev)
}

// Run executes the prompt command
func (c *PromptCmd) Run(cli *CLI) error {
	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := openApp(ctx, cli.cfg, cli.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var sink *network.ChannelEventSink
	if c.Verbose {
		sink = network.NewChannelEventSink(64, cli.logger, network.NewConsoleEventProcessor(os.Stderr, network.ConsoleProcessorConfig{
			ShowToolArguments:  true,
			ShowToolResults:    true,
			ShowIntermediateAI: true,
		}))
	}

	engine := a.engine(nil)
	// a nil *ChannelEventSink must stay a nil interface
	var eventSink network.EventSink
	if sink != nil {
		eventSink = sink
	}
	if err := a.processor(ctx, engine, eventSink); err != nil {
		return err
	}

	dispatcher := events.NewDispatcher(engine, polarisagent.FunctionName, nil, cli.logger)
	service := polarisagent.NewService(a.repo, publisherFunc(dispatcher.Handle), cli.logger)

	var (
		before map[string]string
		sent   *polarisagent.Sent
	)
	if c.Conversation != "" {
		conversation, err := a.repo.GetConversation(ctx, c.Conversation)
		if err != nil {
			return err
		}
		if conversation == nil {
			return storage.ErrConversationGone
		}
		files, err := a.repo.Files().ListProject(ctx, conversation.ProjectID)
		if err != nil {
			return err
		}
		before = snapshot(files)
		sent, err = service.SendMessage(ctx, c.Conversation, c.Message)
		if err != nil {
			return err
		}
	} else {
		sent, err = service.CreateProjectWithPrompt(ctx, c.Owner, c.Message)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "project %s, conversation %s\n", sent.ProjectID, sent.ConversationID)
	}

	engine.Wait()
	if sink != nil {
		sink.Close()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	msg, err := a.repo.GetMessage(context.Background(), sent.MessageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return storage.ErrMessageNotFound
	}
	fmt.Println(msg.Content)

	if !c.NoDiff {
		files, err := a.repo.Files().ListProject(context.Background(), sent.ProjectID)
		if err != nil {
			return err
		}
		if diff := diffSnapshots(before, snapshot(files)); diff != "" {
			fmt.Println()
			fmt.Print(diff)
		}
	}

	if msg.Status != nil && *msg.Status == storage.StatusFailed {
		return errors.New("message processing failed")
	}
	return nil
}
