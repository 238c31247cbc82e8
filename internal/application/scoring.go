package application

import "agentlens/internal/domain/model"

// ScorePR maps a pull request record to its heuristic score vector. Pure and
// total: missing numeric fields score as 0, missing booleans as false, and
// identical input always yields identical output.
//
// The coefficients and thresholds below are part of the observable contract;
// downstream consumers and tests depend on the exact values.
func ScorePR(pr model.PR) model.ScoreVector {
	churn := float64(pr.Churn())
	changedFiles := float64(pr.ChangedFiles)
	docRatio := pr.DocTouchRatio

	sizePenalty := sizePenalty(pr.Churn())

	testBonus := -1.0
	if pr.HasTests {
		testBonus = 1.0
	}

	stabilityBase := 5.0
	if pr.HasTests {
		stabilityBase = 8.0
	}
	if pr.State == model.PRStateMerged {
		stabilityBase += 2
	}
	if pr.Draft {
		stabilityBase -= 2
	}

	robustnessBase := 4.0
	if pr.HasTests {
		robustnessBase = 6.0
	}
	if docRatio > 0.1 {
		robustnessBase++
	}

	risk := 0.0
	if pr.Churn() > 600 {
		risk += 30
	}
	if !pr.HasTests {
		risk += 20
	}
	if pr.Draft {
		risk += 10
	}
	if pr.ChangedFiles > 30 {
		risk += 10
	}
	if pr.State == model.PRStateOpen {
		risk += 15
	}

	return model.ScoreVector{
		CodeQuality: clamp(9-sizePenalty+testBonus, 0, 10),
		Verbosity:   clamp(5+docRatio*5-churn/800, 0, 10),
		Efficiency:  clamp(7-churn/400, 0, 10),
		Stability:   clamp(stabilityBase, 0, 10),
		Robustness:  clamp(robustnessBase, 0, 10),
		CleanCode:   clamp(7-sizePenalty/2, 0, 10),
		Reusability: clamp(6+docRatio*2-changedFiles/50, 0, 10),
		Ingenuity:   clamp(5+min(3, docRatio*2)-sizePenalty/3, 0, 10),
		Attention:   clamp(30+risk-docRatio*10, 0, 100),
	}
}

// sizePenalty is the step function over total churn.
func sizePenalty(churn int) float64 {
	switch {
	case churn < 50:
		return 0
	case churn < 200:
		return 2
	case churn < 600:
		return 4
	default:
		return 6
	}
}

// clamp restricts v to the inclusive range [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
