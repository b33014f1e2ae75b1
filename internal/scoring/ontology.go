// internal/scoring/ontology.go

package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"talentrank-workers/internal/common/errors"
	"talentrank-workers/internal/models"
)

const ontologyScorerVersion = "1"

// semanticMatchThreshold is the minimum graph similarity that counts as a
// match. 1/(1+d) with d=2 sits just above it, so skills up to two hops apart
// still relate.
const semanticMatchThreshold = 0.3

const defaultOntologyMaxDepth = 4

// SkillGraph is an undirected graph of skill relatedness. Edges connect
// skills to close alternatives and to the technology families they belong to.
type SkillGraph struct {
	adjacency map[string][]string
}

// defaultSkillEdges seeds the built-in graph. Family nodes like "backend" act
// as two-hop bridges between their members.
var defaultSkillEdges = map[string][]string{
	"python":     {"django", "flask", "fastapi", "pandas", "backend"},
	"javascript": {"typescript", "react", "node.js", "express", "frontend"},
	"typescript": {"javascript", "react", "angular", "node.js"},
	"java":       {"spring", "kotlin", "backend"},
	"go":         {"backend", "kubernetes", "grpc"},
	"rust":       {"backend", "systems"},
	"c++":        {"systems", "c"},
	"react":      {"javascript", "typescript", "redux", "frontend"},
	"angular":    {"typescript", "frontend"},
	"vue":        {"javascript", "frontend"},
	"django":     {"python", "backend"},
	"flask":      {"python", "backend"},
	"fastapi":    {"python", "backend"},
	"spring":     {"java", "backend"},
	"express":    {"node.js", "backend"},
	"node.js":    {"javascript", "express", "backend"},
	"sql":        {"postgresql", "mysql", "databases"},
	"postgresql": {"sql", "mysql", "databases"},
	"mysql":      {"sql", "postgresql", "databases"},
	"mongodb":    {"databases", "nosql"},
	"redis":      {"databases", "nosql", "caching"},
	"aws":        {"cloud", "terraform", "docker"},
	"azure":      {"cloud", "terraform"},
	"gcp":        {"cloud", "kubernetes"},
	"docker":     {"kubernetes", "devops", "aws"},
	"kubernetes": {"docker", "devops", "gcp", "go"},
	"terraform":  {"devops", "aws", "azure"},
	"jenkins":    {"devops", "ci/cd"},
	"git":        {"devops", "ci/cd"},
	"ci/cd":      {"jenkins", "git", "devops"},
	"grpc":       {"go", "backend"},
	"pandas":     {"python", "data analysis"},
	"kotlin":     {"java"},
	"redux":      {"react"},
	"c":          {"c++", "systems"},
}

// DefaultSkillGraph builds the built-in graph with all edges symmetric.
func DefaultSkillGraph() *SkillGraph {
	g := &SkillGraph{adjacency: make(map[string][]string)}
	for from, neighbors := range defaultSkillEdges {
		for _, to := range neighbors {
			g.addEdge(from, to)
		}
	}
	return g
}

// LoadSkillGraph reads extra adjacency data from a JSON file of the shape
// {"skill": ["related", ...]} and merges it over the built-in graph.
func LoadSkillGraph(path string) (*SkillGraph, error) {
	g := DefaultSkillGraph()
	if path == "" {
		return g, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skill graph %s: %w", path, err)
	}
	var extra map[string][]string
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parse skill graph %s: %w", path, err)
	}
	for from, neighbors := range extra {
		for _, to := range neighbors {
			g.addEdge(normalizeSkill(from), normalizeSkill(to))
		}
	}
	return g, nil
}

func (g *SkillGraph) addEdge(a, b string) {
	if !contains(g.adjacency[a], b) {
		g.adjacency[a] = append(g.adjacency[a], b)
	}
	if !contains(g.adjacency[b], a) {
		g.adjacency[b] = append(g.adjacency[b], a)
	}
}

// Contains reports whether the skill is a node in the graph.
func (g *SkillGraph) Contains(name string) bool {
	_, ok := g.adjacency[normalizeSkill(name)]
	return ok
}

// Similarity is 1/(1+d) where d is the BFS shortest-path distance, 0 when
// either skill is unknown or farther than maxDepth apart. Identical names
// score 1 whether or not they appear in the graph.
func (g *SkillGraph) Similarity(a, b string, maxDepth int) float64 {
	a, b = normalizeSkill(a), normalizeSkill(b)
	if a == b {
		return 1
	}
	if !g.Contains(a) || !g.Contains(b) {
		return 0
	}

	visited := map[string]bool{a: true}
	frontier := []string{a}
	for depth := 1; depth <= maxDepth; depth++ {
		var next []string
		for _, node := range frontier {
			for _, neighbor := range g.adjacency[node] {
				if neighbor == b {
					return 1 / float64(1+depth)
				}
				if !visited[neighbor] {
					visited[neighbor] = true
					next = append(next, neighbor)
				}
			}
		}
		frontier = next
	}
	return 0
}

// OntologyScorer scores semantic skill matches over the graph. Coverage is
// the fraction of required skills the graph can resolve, so an exotic stack
// discounts this signal rather than dragging the candidate down.
type OntologyScorer struct {
	graph    *SkillGraph
	maxDepth int
}

func NewOntologyScorer(graph *SkillGraph, maxDepth int) *OntologyScorer {
	if maxDepth <= 0 {
		maxDepth = defaultOntologyMaxDepth
	}
	return &OntologyScorer{graph: graph, maxDepth: maxDepth}
}

func (s *OntologyScorer) ID() models.ProviderID { return models.ProviderOntology }

func (s *OntologyScorer) Version() string { return ontologyScorerVersion }

func (s *OntologyScorer) Score(ctx context.Context, resume *models.ParsedResume, job *models.JobRequirements) (*models.ComponentScore, error) {
	if s.graph == nil || len(s.graph.adjacency) == 0 {
		return nil, errors.NewProviderUnavailableError(string(models.ProviderOntology), fmt.Errorf("skill graph not loaded"))
	}

	resumeSkills := resume.SkillNames()
	matchedWeight := 0.0
	totalWeight := 0.0
	resolvable := 0
	semanticMatches := map[string]string{}
	var skillGaps []string

	for _, req := range job.RequiredSkills {
		totalWeight += req.Weight
		if s.graph.Contains(req.Name) {
			resolvable++
		}

		best := 0.0
		bestSkill := ""
		for _, have := range resumeSkills {
			if sim := s.graph.Similarity(req.Name, have, s.maxDepth); sim > best {
				best = sim
				bestSkill = have
			}
		}
		if best >= semanticMatchThreshold {
			matchedWeight += req.Weight * best
			semanticMatches[req.Name] = bestSkill
		} else {
			skillGaps = append(skillGaps, req.Name)
		}
	}

	value := 0.0
	if totalWeight > 0 {
		value = 100 * matchedWeight / totalWeight
	}
	for _, pref := range job.PreferredSkills {
		for _, have := range resumeSkills {
			if s.graph.Similarity(pref, have, s.maxDepth) >= semanticMatchThreshold {
				value += 5
				break
			}
		}
	}
	value = clampScore(value)

	coverage := 0.0
	if len(job.RequiredSkills) > 0 {
		coverage = float64(resolvable) / float64(len(job.RequiredSkills))
	}

	return &models.ComponentScore{
		ProviderID:      models.ProviderOntology,
		ProviderVersion: ontologyScorerVersion,
		Value:           value,
		Coverage:        coverage,
		Detail: map[string]interface{}{
			"semanticMatches": semanticMatches,
			"skillGaps":       skillGaps,
		},
	}, nil
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
