// Package inlinesummary compacts long conversations in place.
//
// A contiguous range of entries is replaced by one summary entry that keeps
// the replaced entries in its archive. The summary can later be restored,
// putting the archived entries back, or regenerated from the archive.
// Summaries nest: a range may contain earlier summaries.
//
// # Quick Start
//
//	cfg, _ := config.Load("")
//	client, err := inlinesummary.NewClientFromConfig(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	conv, _ := client.CreateConversation(ctx, "Alice", "Bob", entries)
//	sess, _ := client.Open(ctx, conv.ID)
//
//	_ = sess.SelectStart(2)
//	_ = sess.SelectEnd(9)
//	result, err := sess.Summarize(ctx)
//
// The same operation is available as a command:
//
//	result, err := sess.RunCommand(ctx, "2 9")
//	result, err = sess.RunCommand(ctx, "manual=true 2 9")
//
// # Prompt Budget
//
// The generation prompt is built from the settings' lead, mid and trailing
// instructions, the entries to summarize and as much preceding history as
// fits the backend's context window. Instructions and content that do not
// fit abort the operation before anything changes; history is truncated.
//
// # Concurrency
//
// One AI operation runs at a time across every session of a Client.
// Competing requests fail fast with ErrOperationInProgress. Generation is
// not cancellable once dispatched: the placeholder summary is always
// replaced, by the generated text or by a failure diagnostic.
//
// # Hooks
//
// Register hooks on Client.Hooks to observe selection changes, completed
// operations and diagnostic notifications:
//
//	client.Hooks().OnNotify(func(ctx context.Context, n hooks.Notification) {
//	    log.Printf("%s: %s", n.Level, n.Message)
//	})
package inlinesummary
