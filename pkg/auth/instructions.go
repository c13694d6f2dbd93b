package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCookieExtractionGuide writes step-by-step instructions for copying
// the Weibo session cookie out of a browser
func ShowCookieExtractionGuide(w io.Writer) {
	rule := strings.Repeat("=", 80)
	lines := []string{
		rule,
		"📚 WEIBO COOKIE EXTRACTION GUIDE",
		rule,
		"",
		"weibodl sends your browser session with every status request so that",
		"posts visible to you are visible to the tool as well.",
		"",
		"🌐 STEP 1: Open https://weibo.com in your browser and log in",
		"",
		"🔧 STEP 2: Open Developer Tools",
		"   • Chrome/Edge/Brave/Firefox: F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)",
		"   • Safari: enable the Develop menu in Settings, then Cmd+Option+I",
		"",
		"📡 STEP 3: Go to the Network tab and refresh the page",
		"",
		"🍪 STEP 4: Click any request to weibo.com whose path starts with /ajax/",
		"   Under 'Request Headers' copy the whole value of the 'Cookie:' line.",
		"",
		"🔑 The value must contain at least:",
		"   SUB    the login token, starts with _2A",
		"   SUBP   optional, sent alongside SUB",
		"",
		"💡 TIPS:",
		"   • Paste the complete header, separators included",
		"   • Sessions expire; run `weibodl auth login` again when requests start failing",
		"",
		"⚠️  The cookie grants full access to your account. Never share it.",
		rule,
		"",
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

// ShowQuickExtractGuide writes a condensed version for experienced users
func ShowQuickExtractGuide(w io.Writer) {
	fmt.Fprintln(w, "\n🍪 Quick Guide: F12 → Network → refresh weibo.com → any /ajax/ request → Headers → Cookie")
	fmt.Fprintln(w, "   Need: the full Cookie header including SUB=...")
	fmt.Fprintln(w, "   Type 'help' for detailed instructions")
}
