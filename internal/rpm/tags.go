package rpm

// Tag numbers and sense-flag bits for RPM signature and header sections.
// Only the tags this package actually reads are named; unrecognized tags
// are decoded (so the store's byte layout stays in sync) and dropped.

const (
	rpmMagic        uint32 = 0xedabeedb
	headerMagic     uint32 = 0x8eade8
	oldStyleLeadLen        = 96
)

var rpmVerMin = [2]byte{3, 0}

// Signature header tags (numbers overlap the main header's low range,
// since the two sections use independent tag spaces).
const (
	tagSigSize   = 1000
	tagPGP       = 1002
	tagMD5       = 1004
	tagGPG       = 1005
	tagPayloadSz = 1007
	tagBadSHA1_1 = 264
	tagBadSHA1_2 = 265
	tagSHA1      = 269
	tagDSA       = 267
	tagRSA       = 268
)

// Main header tags this decoder cares about.
const (
	tagName             = 1000
	tagVersion          = 1001
	tagRelease          = 1002
	tagEpoch            = 1003
	tagSummary          = 1004
	tagDescription      = 1005
	tagBuildTime        = 1006
	tagBuildHost        = 1007
	tagSize             = 1009
	tagVendor           = 1011
	tagLicense          = 1014
	tagPackager         = 1015
	tagGroup            = 1016
	tagURL              = 1020
	tagOS               = 1021
	tagArch             = 1022
	tagFileSizes        = 1028
	tagFileModes        = 1030
	tagFileMTimes       = 1034
	tagSourceRPM        = 1044
	tagArchiveSize      = 1046
	tagProvideName      = 1047
	tagRequireFlags     = 1048
	tagRequireName      = 1049
	tagRequireVersion   = 1050
	tagConflictFlags    = 1053
	tagConflictName     = 1054
	tagConflictVersion  = 1055
	tagProvideFlags     = 1112
	tagProvideVersion   = 1113
	tagObsoleteFlags    = 1114
	tagObsoleteVersion  = 1115
	tagDirIndexes       = 1116
	tagBaseNames        = 1117
	tagDirNames         = 1118
	tagPayloadSize      = tagPayloadSz
	tagObsoleteName     = 1090
	tagSourcePackage    = 1106
	tagChangelogTime    = 1080
	tagChangelogName    = 1081
	tagChangelogText    = 1082
	tagPayloadCompr     = 1125
)

// RPMSENSE_* dependency flag bits.
const (
	senseLess     = 1 << 1
	senseGreater  = 1 << 2
	senseEqual    = 1 << 3
	senseMask     = 0x0e
	senseNotEqual = senseEqual ^ senseMask
	senseRPMLib   = (1 << 24)
	// senseInterp|senseScriptPre mask, used to classify a dependency as a
	// "pre" requirement (4352 = 0x1100).
	prereqMask = 4352
)
