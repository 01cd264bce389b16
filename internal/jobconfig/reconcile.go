package jobconfig

import (
	"slices"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// ParamPrefix namespaces the parameters Samson sends against the ones a job
// defines for itself.
const ParamPrefix = "SAMSON_"

// ExpectedParams are the build parameters Samson sends, by unprefixed name.
var ExpectedParams = map[string]string{
	"buildStartedBy": "Samson username of the person who started the deploy",
	"originatedFrom": "Samson project + stage + reference of the deploy, joined by underscores",
	"commit":         "Git commit hash of the deploy",
	"tag":            "Git tag of the deploy, if any",
	"deployUrl":      "Samson url that triggered this build",
	"emails":         "Comma separated emails of the deployer, buddy and optionally committers",
}

// Sentinels delimiting the block of the job description Samson maintains.
var (
	DescriptionStart = []string{
		"#### SAMSON DESCRIPTION STARTS ####",
		"Following samson stages are using this job:",
	}
	DescriptionEnd = []string{
		"#### SAMSON DESCRIPTION ENDS ####",
		"#### This description block is generated by Samson, do not edit ####",
	}
)

const (
	propertiesTag      = "properties"
	paramsPropertyTag  = "hudson.model.ParametersDefinitionProperty"
	paramDefsTag       = "parameterDefinitions"
	stringParamTag     = "hudson.model.StringParameterDefinition"
	descriptionTag     = "description"
	callerBullet       = "* "
	defaultRootElement = "project"
)

// CallerLine is the description line identifying a project stage.
func CallerLine(project, stage string) string {
	return squish(callerBullet + project + " - " + stage)
}

// Reconcile makes doc declare every expected parameter and list the caller
// in the Samson description block. It reports whether doc was modified.
func Reconcile(doc *etree.Document, project, stage string) bool {
	root := doc.Root()
	if root == nil {
		root = doc.CreateElement(defaultRootElement)
	}

	paramsChanged := reconcileParameters(root)
	descriptionChanged := reconcileDescription(root, CallerLine(project, stage))
	return paramsChanged || descriptionChanged
}

// MissingParams returns the expected parameter names, unprefixed and sorted,
// that root does not define yet.
func MissingParams(root *etree.Element) []string {
	existing := map[string]bool{}
	if defs := findPath(root, propertiesTag, paramsPropertyTag, paramDefsTag); defs != nil {
		for _, def := range defs.SelectElements(stringParamTag) {
			name := def.SelectElement("name")
			if name == nil {
				continue
			}
			if n := strings.TrimSpace(name.Text()); strings.HasPrefix(n, ParamPrefix) {
				existing[strings.TrimPrefix(n, ParamPrefix)] = true
			}
		}
	}

	var missing []string
	for name := range ExpectedParams {
		if !existing[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

func reconcileParameters(root *etree.Element) bool {
	missing := MissingParams(root)
	if len(missing) == 0 {
		return false
	}

	defs := ensurePath(root, propertiesTag, paramsPropertyTag, paramDefsTag)
	for _, name := range missing {
		def := defs.CreateElement(stringParamTag)
		def.CreateElement("name").SetText(ParamPrefix + name)
		def.CreateElement("description").SetText(ExpectedParams[name])
		def.CreateElement("defaultValue")
	}
	return true
}

func reconcileDescription(root *etree.Element, caller string) bool {
	var text string
	desc := root.SelectElement(descriptionTag)
	if desc != nil {
		text = desc.Text()
	}

	block := parseDescription(text)
	hasCaller := slices.Contains(block.callers, caller)
	if block.complete() && hasCaller {
		return false
	}
	if !hasCaller {
		block.callers = append(block.callers, caller)
	}

	if desc == nil {
		desc = root.CreateElement(descriptionTag)
	}
	desc.SetText(block.String())
	return true
}

type description struct {
	retained []string
	callers  []string
	found    map[string]bool
}

// parseDescription splits a job description into ordinary lines and the
// caller lines found inside the Samson block.
func parseDescription(text string) description {
	d := description{found: map[string]bool{}}
	inBlock := false

	for _, line := range descriptionLines(text) {
		switch {
		case line == DescriptionStart[0]:
			d.found[line] = true
			inBlock = true
		case line == DescriptionStart[1] || line == DescriptionEnd[1]:
			d.found[line] = true
		case line == DescriptionEnd[0]:
			d.found[line] = true
			inBlock = false
		case inBlock && strings.HasPrefix(line, callerBullet):
			if !slices.Contains(d.callers, line) {
				d.callers = append(d.callers, line)
			}
		default:
			d.retained = append(d.retained, line)
		}
	}
	return d
}

func (d description) complete() bool {
	for _, line := range DescriptionStart {
		if !d.found[line] {
			return false
		}
	}
	for _, line := range DescriptionEnd {
		if !d.found[line] {
			return false
		}
	}
	return true
}

func (d description) String() string {
	lines := make([]string, 0, len(d.retained)+len(DescriptionStart)+len(d.callers)+len(DescriptionEnd))
	lines = append(lines, d.retained...)
	lines = append(lines, DescriptionStart...)
	lines = append(lines, d.callers...)
	lines = append(lines, DescriptionEnd...)
	return strings.Join(lines, "\n")
}

// descriptionLines squishes every line and drops trailing blank ones.
func descriptionLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = squish(line)
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func squish(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func findPath(el *etree.Element, tags ...string) *etree.Element {
	for _, tag := range tags {
		if el = el.SelectElement(tag); el == nil {
			return nil
		}
	}
	return el
}

func ensurePath(el *etree.Element, tags ...string) *etree.Element {
	for _, tag := range tags {
		child := el.SelectElement(tag)
		if child == nil {
			child = el.CreateElement(tag)
		}
		el = child
	}
	return el
}
