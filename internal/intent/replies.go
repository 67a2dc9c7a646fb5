package intent

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"Travia/internal/knowledge"
	"Travia/internal/offers"
	"Travia/internal/transport"
)

const (
	emptyReply    = "I didn't receive any message. Could you please type your query again?"
	identityReply = "You can call me **TRAViA**, your smart travel assistant 🤝."
	thanksReply   = "You're welcome 😊. If you need help with more routes or bookings, just ask!"
	noDataReply   = "I don't have any route data loaded right now. Please try searching again."
	cheapestIntro = "💸 **Overall cheapest option in the system**\n\n"
)

var greetingReplies = []string{
	"👋 Hello! I'm your Smart Travel Assistant.\n\n" +
		"I can help you with:\n" +
		"- Finding routes (train / bus / flight / taxi / bike)\n" +
		"- Choosing the cheapest or fastest option\n" +
		"- Explaining safety & baggage rules\n" +
		"- Simulating ticket booking\n\n" +
		"Try asking: *Best train from Delhi to Agra*",
	"👋 Hi there! Tell me where you're headed, for example *cheapest bus from Pune to Mumbai*.",
	"🙏 Namaste! I'm TRAViA. Ask me for the fastest, cheapest or greenest way to travel.",
}

const rushReply = "🎉 **Travelling during a rush period?**\n\n" +
	"- Book trains and flights as early as possible, seats sell out fast\n" +
	"- Expect higher taxi and bike fares around festivals and long weekends\n" +
	"- Keep a backup option on a different mode\n" +
	"- Reach stations and airports earlier than usual\n\n" +
	"Share your route and I'll find the best available option."

const prepareReply = "🧳 **Trip preparation checklist**\n\n" +
	"- ID proof and printed or digital tickets\n" +
	"- Phone charger and power bank\n" +
	"- Water, snacks and any regular medicines\n" +
	"- Weather-appropriate clothing\n" +
	"- Emergency contacts saved offline\n\n" +
	"Want me to look up a route for you?"

const safetyTipsReply = "I couldn't find specific rules in the knowledge base, but in general:\n" +
	"- Keep valuables with you\n" +
	"- Avoid sharing personal details with strangers\n" +
	"- Double-check vehicle details before boarding"

const fallbackReply = "🤖 I'm here to help with your travel.\n\n" +
	"You can ask me things like:\n" +
	"- *Best train from Delhi to Agra*\n" +
	"- *Cheapest flight from Mumbai to Goa*\n" +
	"- *Bus from Pune to Mumbai under 800*\n" +
	"- *Is night train travel safe?*\n" +
	"- *Baggage rules for flights*\n\n" +
	"Just describe your trip in natural language, and I'll do my best to answer."

var titleCaser = cases.Title(language.Und)

func titleCase(s string) string {
	return titleCaser.String(s)
}

func namedGreeting(name string) string {
	return fmt.Sprintf("👋 Hello %s! How can I assist with your travel today?", name)
}

func nameReply(name string) string {
	if name == "" {
		return "Nice to meet you 🙂. How can I help you with your travel today?"
	}
	return fmt.Sprintf("Nice to meet you, %s 🙂. How can I help you with your travel today?", name)
}

func bookingReply(opt transport.Option) string {
	return fmt.Sprintf("🎟️ Booking simulated — your ticket for **%s (%s)** from **%s** to **%s** is confirmed!\n\n"+
		"If you want, I can now suggest a return trip or alternative options.",
		opt.Name, strings.ToUpper(string(opt.Mode)), opt.Origin, opt.Destination)
}

func platformsReply() string {
	var b strings.Builder
	b.WriteString("🌐 **Where to book**\n\n")
	for _, m := range transport.Modes {
		fmt.Fprintf(&b, "- %s: %s\n", titleCase(string(m)), strings.Join(offers.Providers(m), ", "))
	}
	b.WriteString("\nAsk me to compare prices across websites for any route.")
	return b.String()
}

func notFoundReply(origin, destination string, mode transport.Mode) string {
	route := fmt.Sprintf("%s → %s", origin, destination)
	if mode != "" {
		route += " by " + string(mode)
	}
	return fmt.Sprintf("❌ I couldn't find any routes for **%s** in the current dataset.\n\n"+
		"You can try:\n"+
		"- Checking spelling of city names\n"+
		"- Using a nearby major city\n"+
		"- Changing the transport mode (train / bus / flight / taxi / bike)", route)
}

func overBudgetReply(origin, destination string, maxBudget float64) string {
	return fmt.Sprintf("💰 I found routes for **%s → %s**, but none within ₹%s.\n\n"+
		"Try a higher budget or a different mode.", origin, destination, formatNumber(maxBudget))
}

func optionCard(opt transport.Option) string {
	return "💡 **Best Option Found**\n\n" +
		fmt.Sprintf("🚍 Mode: **%s**\n", strings.ToUpper(string(opt.Mode))) +
		fmt.Sprintf("🛣 Route: %s → %s\n", opt.Origin, opt.Destination) +
		fmt.Sprintf("💰 Price: ₹%s\n", formatNumber(opt.Price)) +
		fmt.Sprintf("⭐ Rating: %s\n", formatNumber(opt.Rating)) +
		fmt.Sprintf("⏱ Duration: %s mins\n\n", formatNumber(opt.DurationMins)) +
		"Would you like me to book this option for you?"
}

func knowledgeReply(doc knowledge.ScoredDocument) string {
	return fmt.Sprintf("📘 **%s**\n\n%s\n\n", DocumentTitle(doc.Title), doc.Snippet) +
		"If you share your route (for example: *train from Mumbai to Delhi*), " +
		"I can also suggest the best option for that journey."
}

// DocumentTitle turns a file stem like "baggage_rules" into "Baggage Rules".
func DocumentTitle(stem string) string {
	return titleCase(strings.ReplaceAll(stem, "_", " "))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
