package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// osascriptSink posts to the macOS notification center.
type osascriptSink struct{}

func (s *osascriptSink) Name() string { return "osascript" }

func (s *osascriptSink) Send(ctx context.Context, title, message string) error {
	script := fmt.Sprintf("display notification %q with title %q", message, title)
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("osascript: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// powershellSink raises a Windows toast. From WSL this bridges into the
// host desktop shell via the mounted PowerShell binary.
type powershellSink struct{}

func (s *powershellSink) Name() string { return "powershell" }

// powershellPaths are tried in order: the WSL mount first, then PATH
// lookup, then the plain Windows install path.
var powershellPaths = []string{
	"/mnt/c/Windows/System32/WindowsPowerShell/v1.0/powershell.exe",
	"powershell.exe",
	`C:\Windows\System32\WindowsPowerShell\v1.0\powershell.exe`,
}

const toastTemplate = `
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] > $null
$template = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent([Windows.UI.Notifications.ToastTemplateType]::ToastText02)
$toastXml = [xml] $template.GetXml()
$toastXml.GetElementsByTagName("text")[0].AppendChild($toastXml.CreateTextNode("%s")) > $null
$toastXml.GetElementsByTagName("text")[1].AppendChild($toastXml.CreateTextNode("%s")) > $null
$xml = New-Object Windows.Data.Xml.Dom.XmlDocument
$xml.LoadXml($toastXml.OuterXml)
$toast = [Windows.UI.Notifications.ToastNotification]::new($xml)
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("%s").Show($toast)
`

func (s *powershellSink) Send(ctx context.Context, title, message string) error {
	script := fmt.Sprintf(toastTemplate,
		escapePowerShell(title), escapePowerShell(message), appName)

	var lastErr error
	for _, psPath := range powershellPaths {
		cmd := exec.CommandContext(ctx, psPath, "-NoProfile", "-Command", script)
		if err := cmd.Run(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no powershell binary found")
	}
	return fmt.Errorf("powershell toast: %w", lastErr)
}

func escapePowerShell(s string) string {
	s = strings.ReplaceAll(s, `"`, "`\"")
	s = strings.ReplaceAll(s, "'", "''")
	return s
}

// notifySendSink calls the freedesktop notification daemon helper.
type notifySendSink struct{}

func (s *notifySendSink) Name() string { return "notify-send" }

func (s *notifySendSink) Send(ctx context.Context, title, message string) error {
	cmd := exec.CommandContext(ctx, "notify-send", "-u", "critical", "-t", "10000", title, message)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("notify-send: %w", err)
	}
	return nil
}
