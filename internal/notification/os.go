package notification

import (
	"fmt"
	"os/exec"
	"strings"
)

// osNotificationChannel shows desktop notifications through the platform notifier
type osNotificationChannel struct {
	config   OSNotificationConfig
	executor CommandExecutor
	platform string
}

func newOSNotificationChannel(cfg OSNotificationConfig, executor CommandExecutor, platform string) *osNotificationChannel {
	return &osNotificationChannel{config: cfg, executor: executor, platform: platform}
}

// Send shows n on the desktop
func (c *osNotificationChannel) Send(n Notification) error {
	switch c.platform {
	case "linux", "freebsd", "openbsd":
		return c.sendLinux(n)
	case "darwin":
		return c.sendDarwin(n)
	case "windows":
		return c.sendWindows(n)
	default:
		return fmt.Errorf("unsupported platform: %s", c.platform)
	}
}

// sendLinux uses notify-send from libnotify
func (c *osNotificationChannel) sendLinux(n Notification) error {
	args := []string{"--app-name=ChoreBuddy"}
	if n.Type == NotifyReminder {
		args = append(args, "--urgency=normal")
	}
	args = append(args, n.Title, n.Message)
	return c.executor.Execute("notify-send", args...)
}

// escapeAppleScript escapes backslashes and double quotes for AppleScript strings
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

func (c *osNotificationChannel) sendDarwin(n Notification) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`,
		escapeAppleScript(n.Message), escapeAppleScript(n.Title))
	if c.config.Sound {
		script += ` sound name "default"`
	}
	return c.executor.Execute("osascript", "-e", script)
}

// escapePowerShell escapes backticks, double quotes and dollar signs
func escapePowerShell(s string) string {
	s = strings.ReplaceAll(s, "`", "``")
	s = strings.ReplaceAll(s, `"`, "`\"")
	s = strings.ReplaceAll(s, "$", "`$")
	return s
}

func (c *osNotificationChannel) sendWindows(n Notification) error {
	script := fmt.Sprintf(`
Add-Type -AssemblyName System.Windows.Forms
$notification = New-Object System.Windows.Forms.NotifyIcon
$notification.Icon = [System.Drawing.SystemIcons]::Information
$notification.BalloonTipTitle = "%s"
$notification.BalloonTipText = "%s"
$notification.Visible = $true
$notification.ShowBalloonTip(5000)
`, escapePowerShell(n.Title), escapePowerShell(n.Message))
	return c.executor.Execute("powershell", "-Command", script)
}

// Close is a no-op
func (c *osNotificationChannel) Close() error {
	return nil
}

// realCommandExecutor runs the notifier binary
type realCommandExecutor struct{}

func (e *realCommandExecutor) Execute(cmd string, args ...string) error {
	return exec.Command(cmd, args...).Run()
}
