package squid

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/logger"
	"github.com/vigiaproxy/vigia/internal/models"
	"github.com/vigiaproxy/vigia/internal/rules"
)

// Exporter renders the live, enabled rule set into Squid ACL syntax and
// applies it: write the generated file, then run the configured reload
// command so the proxy picks it up.
type Exporter struct {
	db         *gorm.DB
	outputPath string
	reloadCmd  string
}

// NewExporter creates an exporter. reloadCmd may be empty, in which case
// Apply only writes the file.
func NewExporter(db *gorm.DB, outputPath, reloadCmd string) *Exporter {
	return &Exporter{db: db, outputPath: outputPath, reloadCmd: reloadCmd}
}

// Squid's time ACL day codes: S=Sun M=Mon T=Tue W=Wed H=Thu F=Fri A=Sat.
var squidDayCodes = map[string]string{
	"SUN": "S", "MON": "M", "TUE": "T", "WED": "W",
	"THU": "H", "FRI": "F", "SAT": "A",
}

// Render produces the configuration text from live, enabled rules ordered by
// (policy, priority). Rules whose stored condition no longer parses are
// rendered as comments instead of silently dropped, so the generated file
// shows what was excluded.
func (e *Exporter) Render() (string, error) {
	var policies []models.Policy
	if err := e.db.Where("enabled = ?", true).Order("name asc").Find(&policies).Error; err != nil {
		return "", fmt.Errorf("fetch policies: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Generated by Vigia " + time.Now().UTC().Format(time.RFC3339) + "\n")
	b.WriteString("# Do not edit; changes are overwritten on every apply.\n")

	for _, policy := range policies {
		var ruleRows []models.Rule
		if err := e.db.Where("policy_id = ? AND enabled = ?", policy.ID, true).
			Order("priority asc").Find(&ruleRows).Error; err != nil {
			return "", fmt.Errorf("fetch rules for policy %s: %w", policy.Name, err)
		}
		if len(ruleRows) == 0 {
			continue
		}

		b.WriteString(fmt.Sprintf("\n# Policy: %s (%s)\n", policy.Name, policy.Type))
		for _, rule := range ruleRows {
			if err := e.renderRule(&b, rule); err != nil {
				return "", err
			}
		}
	}

	return b.String(), nil
}

func (e *Exporter) renderRule(b *strings.Builder, rule models.Rule) error {
	cond, err := rules.Parse([]byte(rule.Condition))
	if err != nil {
		b.WriteString(fmt.Sprintf("# rule %d skipped: invalid condition\n", rule.ID))
		logger.WithFields(map[string]interface{}{"rule_id": rule.ID}).
			Warn("skipping rule with invalid stored condition during export")
		return nil
	}

	prefix := fmt.Sprintf("vigia_r%d", rule.ID)
	var aclNames []string

	hosts, err := e.matchedHosts(cond.Match)
	if err != nil {
		return err
	}
	if len(hosts) > 0 {
		b.WriteString(fmt.Sprintf("acl %s_dst dstdomain %s\n", prefix, strings.Join(hosts, " ")))
		aclNames = append(aclNames, prefix+"_dst")
	}

	if len(cond.Match.HTTPMethods) > 0 {
		methods := make([]string, len(cond.Match.HTTPMethods))
		for i, m := range cond.Match.HTTPMethods {
			methods[i] = strings.ToUpper(m)
		}
		b.WriteString(fmt.Sprintf("acl %s_method method %s\n", prefix, strings.Join(methods, " ")))
		aclNames = append(aclNames, prefix+"_method")
	}

	if len(cond.Match.Services) > 0 {
		ports := make([]string, len(cond.Match.Services))
		for i, svc := range cond.Match.Services {
			ports[i] = fmt.Sprintf("%d", svc.Port)
		}
		b.WriteString(fmt.Sprintf("acl %s_port port %s\n", prefix, strings.Join(ports, " ")))
		aclNames = append(aclNames, prefix+"_port")
	}

	if len(cond.Match.Zones) > 0 {
		// Zones are an upstream firewall concept; Squid has no equivalent ACL.
		b.WriteString(fmt.Sprintf("# rule %d: zone criteria enforced upstream\n", rule.ID))
	}

	if !cond.Time.IsZero() {
		b.WriteString(fmt.Sprintf("acl %s_time time %s %s-%s\n",
			prefix, squidDays(cond.Time.Days), cond.Time.Start, cond.Time.End))
		aclNames = append(aclNames, prefix+"_time")
	}

	if len(aclNames) == 0 {
		b.WriteString(fmt.Sprintf("# rule %d: no renderable criteria\n", rule.ID))
		return nil
	}

	switch rule.Action {
	case models.ActionDeny:
		b.WriteString(fmt.Sprintf("http_access deny %s\n", strings.Join(aclNames, " ")))
	case models.ActionAllow:
		b.WriteString(fmt.Sprintf("http_access allow %s\n", strings.Join(aclNames, " ")))
	default:
		// ALERT and LOG_ONLY rules observe traffic without blocking it;
		// Squid logs every request already, so nothing to enforce here.
		b.WriteString(fmt.Sprintf("# rule %d action %s: observe only\n", rule.ID, rule.Action))
	}
	return nil
}

// matchedHosts collects dstdomain entries from the literal URL list and from
// every URL row in the matched categories.
func (e *Exporter) matchedHosts(match rules.Match) ([]string, error) {
	seen := make(map[string]struct{})

	for _, raw := range match.URLs {
		host := SplitURL(raw).Host
		if host != "" {
			seen[host] = struct{}{}
		}
	}

	if len(match.URLCategories) > 0 {
		var urlRows []models.URL
		if err := e.db.Where("category_id IN ?", match.URLCategories).Find(&urlRows).Error; err != nil {
			return nil, fmt.Errorf("fetch category urls: %w", err)
		}
		for _, row := range urlRows {
			seen[row.Host] = struct{}{}
		}
	}

	hosts := make([]string, 0, len(seen))
	for host := range seen {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts, nil
}

func squidDays(days []string) string {
	var b strings.Builder
	// Emit in Squid's canonical S-A order regardless of input order.
	for _, code := range []string{"S", "M", "T", "W", "H", "F", "A"} {
		for _, day := range days {
			if squidDayCodes[day] == code {
				b.WriteString(code)
				break
			}
		}
	}
	return b.String()
}

// Apply renders the configuration, writes it to the output path and runs the
// reload command when one is configured. It returns an operator-facing
// summary message.
func (e *Exporter) Apply(ctx context.Context) (string, error) {
	text, err := e.Render()
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(e.outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("ensure output directory: %w", err)
		}
	}
	if err := os.WriteFile(e.outputPath, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write rules file: %w", err)
	}

	if strings.TrimSpace(e.reloadCmd) == "" {
		return fmt.Sprintf("Rules written to %s.", e.outputPath), nil
	}

	parts := strings.Fields(e.reloadCmd)
	out, err := exec.CommandContext(ctx, parts[0], parts[1:]...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("reload command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	result := strings.TrimSpace(string(out))
	if result == "" {
		result = "OK"
	}
	return fmt.Sprintf("Rules written to %s. Proxy reload: %s", e.outputPath, result), nil
}
