// Package boost computes the ambient-darkness and sunset contributions that
// raise a zone's minimum brightness. Both calculators are pure and degrade
// missing readings to a neutral contribution instead of failing.
package boost
