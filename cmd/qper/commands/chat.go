package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/aita-solution/qper-threads-correct/pkg/capture"
	"github.com/aita-solution/qper-threads-correct/pkg/chatcore"
	"github.com/aita-solution/qper-threads-correct/pkg/cli"
	"github.com/aita-solution/qper-threads-correct/pkg/upload"
)

var (
	chatMic     micFlags
	chatCamera  string
	chatCompact bool
	chatWidth   int
)

const chatHelp = `/attach <file>...  add attachments to the next message
/photo             take a photo and attach it
/record            start recording; again to stop, transcribe and send
/files             list pending attachments
/drop <n>          remove pending attachment n
/reset             start a new conversation
/quit              exit`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat interactively",
	Long: `Start an interactive conversation. Every line is sent as one turn;
lines starting with / are commands.

` + chatHelp + `

Examples:
  qper chat
  qper chat --camera snapshot.png --mic-input memo.wav`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := getContext()
		if err != nil {
			return err
		}

		var cam capture.Camera
		if chatCamera != "" {
			cam = capture.ImageFileCamera{Path: chatCamera}
		}
		limits := upload.GeneralLimits
		if chatCompact {
			limits = upload.CompactLimits
		}

		styles := cli.NewStyles(cli.DefaultTheme)
		out := &chatPrinter{w: cmd.OutOrStdout(), styles: styles, width: chatWidth}

		rec, err := chatMic.recorder(func(_ *capture.Blob, err error) {
			if err != nil {
				out.fail(err)
				return
			}
			out.println(styles.Help.Render("maximum recording time reached, /record to send it"))
		})
		if err != nil {
			return err
		}

		st, err := newStack(ctx, stackOptions{
			limits:   limits,
			recorder: rec,
			camera:   cam,
			onEntry:  out.entry,
		})
		if err != nil {
			return err
		}
		defer st.close()

		out.println(styles.Title.Render("qper") + " " + styles.Help.Render("context "+ctx.Name+" - /help for commands"))
		return runChat(cmd.InOrStdin(), st.core, out)
	},
}

func init() {
	chatMic.register(chatCmd)
	chatCmd.Flags().StringVar(&chatCamera, "camera", "", "image file used as camera for /photo")
	chatCmd.Flags().BoolVar(&chatCompact, "compact", false, "use the compact attachment limits (5MB, images and documents)")
	chatCmd.Flags().IntVar(&chatWidth, "width", 80, "wrap replies at this width (0 disables)")
}

// chatPrinter serializes terminal output from the prompt loop and from
// settling turns.
type chatPrinter struct {
	mu     sync.Mutex
	w      io.Writer
	styles cli.Styles
	width  int
}

func (p *chatPrinter) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}

func (p *chatPrinter) entry(e chatcore.Entry) {
	switch {
	case e.Role == chatcore.RoleUser:
		if len(e.Files) > 0 {
			p.println(p.styles.Attachments(e.Files))
		}
	case e.Pending:
		p.println(p.styles.Help.Render("..."))
	case e.Failed:
		p.println(p.styles.Message("assistant", p.styles.Error, e.Text, p.width))
	default:
		p.println(p.styles.Message("assistant", p.styles.Assistant, e.Text, p.width))
	}
}

func (p *chatPrinter) fail(err error) {
	p.println(p.styles.Error.Render(chatcore.DescribeError(err)))
}

func runChat(in io.Reader, core *chatcore.Core, out *chatPrinter) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		var line string
		var ok bool
		select {
		case <-sigCtx.Done():
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			// Input closed: let queued turns finish before exiting.
			waitCtx, cancel := context.WithTimeout(sigCtx, 5*time.Minute)
			err := core.Wait(waitCtx)
			cancel()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "/") {
			if line != "" || len(core.PendingFiles()) > 0 {
				core.Send(line)
			}
			continue
		}
		if quit := chatCommand(sigCtx, core, out, line); quit {
			return nil
		}
	}
}

func chatCommand(ctx context.Context, core *chatcore.Core, out *chatPrinter, line string) (quit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/help":
		out.println(out.styles.Help.Render(chatHelp))

	case "/attach":
		if len(fields) < 2 {
			out.println(out.styles.Help.Render("usage: /attach <file>..."))
			break
		}
		files, err := readFiles(fields[1:])
		if err != nil {
			out.fail(err)
			break
		}
		rejected := core.SelectFiles(files)
		for _, r := range rejected {
			out.println(out.styles.Error.Render(r.File.Name + ": " + chatcore.DescribeError(r.Err)))
		}
		printPending(core, out)

	case "/photo":
		f, err := core.TakePhoto(ctx)
		if err != nil {
			out.fail(err)
			break
		}
		out.println(out.styles.Attachments([]string{fileSummary(f)}))

	case "/record":
		stopCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		text, stopped, err := core.ToggleRecording(stopCtx)
		cancel()
		if err != nil {
			out.fail(err)
			break
		}
		if !stopped {
			out.println(out.styles.Help.Render("recording... /record to stop"))
			break
		}
		out.println(out.styles.Message("you (voice)", out.styles.User, text, out.width))
		core.Send(text)

	case "/files":
		printPending(core, out)

	case "/drop":
		n := 0
		if len(fields) == 2 {
			n, _ = strconv.Atoi(fields[1])
		}
		if err := core.RemoveFile(n - 1); err != nil {
			out.println(out.styles.Help.Render("usage: /drop <n> (see /files)"))
			break
		}
		printPending(core, out)

	case "/reset":
		core.Reset()
		out.println(out.styles.Help.Render("new conversation"))

	default:
		out.println(out.styles.Help.Render("unknown command " + fields[0] + ", /help lists commands"))
	}
	return false
}

func printPending(core *chatcore.Core, out *chatPrinter) {
	files := core.PendingFiles()
	if len(files) == 0 {
		out.println(out.styles.Help.Render("no attachments"))
		return
	}
	items := make([]string, len(files))
	for i, f := range files {
		items[i] = strconv.Itoa(i+1) + ". " + fileSummary(f)
	}
	out.println(out.styles.Attachments(items))
}
