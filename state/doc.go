// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the storage of native contracts.
// It follows the flow as bellow:
//
//	           o
//	           |
//	  [ revertable state ]
//	           |
//	    [ stacked map ] -> [ journal ] -> [ playback(staging) ] -> [ kv batch ]
//	           |
//	     [ lru cache ]
//	           |
//	      [ kv store ]
//
// Every native call runs between a checkpoint and either a revert or the next
// checkpoint, so a failed call leaves no trace in the journal.
package state
