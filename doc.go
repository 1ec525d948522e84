// Package taxlot reconciles broker-reported cost basis for equity
// compensation (RSU, NSO, ESPP, ISO) against tax-law-correct basis and
// estimates the resulting federal and California liability.
//
// The core functionalities include:
//   - Lot Matching: allocating a sale's shares across acquisition lots by
//     FIFO, specific identification, or fuzzy name matching when the ticker
//     is unknown.
//   - Basis Correction: per-equity-type computation of correct basis,
//     Form 8949 adjustment, ordinary income, and AMT adjustment, including
//     the ESPP qualifying/disqualifying split and the ISO dual basis.
//   - Reconciliation: an idempotent orchestrator that matches and corrects
//     every sale of a tax year against a persistence collaborator, producing
//     per-sale results and a run summary.
//   - Tax Estimation: a pure estimator aggregating W-2/1099 and reconciled
//     gains into full federal + California liability, with LTCG stacking,
//     AMT, NIIT, and capital-loss carryover.
//
// All monetary arithmetic uses exact decimals; binary floating point never
// touches a tax number. Monetary values cross every boundary as
// exact-decimal strings.
package taxlot
